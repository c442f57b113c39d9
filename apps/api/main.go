package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/studyhuddle/backend/apps/api/echo"
	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/ai"
	"github.com/studyhuddle/backend/core/group"
	"github.com/studyhuddle/backend/core/profile"
	"github.com/studyhuddle/backend/core/reminder"
	"github.com/studyhuddle/backend/core/task"
	dummyai "github.com/studyhuddle/backend/services/ai/dummy"
	geminiai "github.com/studyhuddle/backend/services/ai/gemini"
	logsvc "github.com/studyhuddle/backend/services/logger"
	pushsvc "github.com/studyhuddle/backend/services/push"
	fcmpush "github.com/studyhuddle/backend/services/push/fcm"
	"github.com/studyhuddle/backend/storage/database"
	sqlxrepos "github.com/studyhuddle/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database failed", err)
		}
	}()

	ctx := context.Background()

	var push core.PushService
	if conf.Debug {
		push = pushsvc.NewConsoleService()
	} else {
		push, err = fcmpush.NewService(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up push service: %v", err), err)
		}
	}

	var gen ai.Generator
	if conf.Debug && conf.AI.APIKey == "" {
		gen = dummyai.NewService("AI is disabled in this environment.")
	} else {
		gen, err = geminiai.NewService(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up AI service: %v", err), err)
		}
	}

	profileSvc := profile.NewService(sqlxrepos.NewProfileRepository(db))
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(db), profileSvc, logger)
	groupSvc := group.NewService(sqlxrepos.NewGroupRepository(db), push, logger)
	aiSvc := ai.NewService(gen)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	// =========================================================================
	// Start Reminder Scheduler

	sched := reminder.NewScheduler(sqlxrepos.NewReminderRepository(db), push, logger, conf)
	if err = sched.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("starting scheduler: %v", err), err)
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		ProfileSvc: profileSvc,
		TaskSvc:    taskSvc,
		GroupSvc:   groupSvc,
		AISvc:      aiSvc,
		Validate:   validate,
		Translator: translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding work a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = sched.Stop(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop scheduler gracefully: %v", err), err)
		}

		if err = server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Ping(db); err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
