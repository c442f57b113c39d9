package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/ai"
	"github.com/studyhuddle/backend/core/group"
	"github.com/studyhuddle/backend/core/profile"
	"github.com/studyhuddle/backend/core/task"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		ProfileSvc     profile.ServiceInterface
		TaskSvc        task.ServiceInterface
		GroupSvc       group.ServiceInterface
		AISvc          ai.ServiceInterface
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.Server.CORSOrigin},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.OFF)

	s.app.GET("/", home)

	jwt := configureAuth(conf)

	// legacy paths kept for existing clients
	api := s.app.Group("/api")
	registerAIAPI(api, s.deps.AISvc, s.deps.Validate)
	registerNotificationAPI(api, s.deps.GroupSvc, s.deps.Validate)

	v1 := s.app.Group("/v1")
	registerAuthAPI(v1, jwt, s.deps.ProfileSvc, s.deps.Validate)
	registerProfileAPI(v1, jwt, s.deps.ProfileSvc, s.deps.Validate)
	registerTaskAPI(v1, jwt, s.deps.TaskSvc, s.deps.Validate)
	registerGroupAPI(v1, jwt, s.deps.GroupSvc, s.deps.ProfileSvc, s.deps.Validate)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

// signalShutdown initiates a graceful shutdown when an integrity issue is caught.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "StudyHuddle API is running smoothly!")
}
