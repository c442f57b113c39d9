package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core"
)

// NotificationTitle is the fixed title of every reminder push.
const NotificationTitle = "Study Time!"

type (
	// Candidate is a due-and-unnotified task joined with its owner's push
	// registration. It only lives for the duration of one tick.
	Candidate struct {
		TaskID  string
		Title   string
		OwnerID string
		Token   null.String
	}

	Repository interface {
		// QueryDueCandidates returns tasks with reminder_time <= now and
		// notified = false, joined with the owning profile's push token.
		QueryDueCandidates(ctx context.Context, now time.Time) ([]Candidate, error)
		// MarkTaskNotified flips the task's notified flag to true.
		MarkTaskNotified(ctx context.Context, taskID string) error
		// ClearPushToken nulls the owning profile's push token.
		ClearPushToken(ctx context.Context, ownerID string) error
	}

	// Scheduler is the process-wide reminder job: on a fixed cadence it scans
	// due tasks, dispatches at most one push attempt per task per tick, marks
	// delivered tasks notified and clears permanently dead tokens.
	Scheduler struct {
		repo            Repository
		pushSvc         core.PushService
		logger          core.Logger
		interval        time.Duration
		dispatchTimeout time.Duration
		maxAttempts     int

		cron *cron.Cron

		// attempts counts transient delivery failures per task so a task that
		// keeps failing stops being retried after maxAttempts. Only touched
		// from within a tick; ticks never overlap (SkipIfStillRunning).
		attempts map[string]int

		nowFunc func() time.Time // mockable
	}
)

func NewScheduler(repo Repository, pushSvc core.PushService, logger core.Logger, conf *core.Config) *Scheduler {
	return &Scheduler{
		repo:            repo,
		pushSvc:         pushSvc,
		logger:          logger,
		interval:        conf.Scheduler.TickInterval,
		dispatchTimeout: conf.Scheduler.DispatchTimeout,
		maxAttempts:     conf.Scheduler.MaxAttempts,
		cron:            cron.New(),
		attempts:        make(map[string]int),
		nowFunc:         time.Now,
	}
}

// Start schedules the recurring tick and returns immediately. A tick that
// outlives the interval causes the next one to be skipped, not queued.
func (s *Scheduler) Start() error {
	chain := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.logger}))
	_, err := s.cron.AddJob(fmt.Sprintf("@every %s", s.interval), chain.Then(cron.FuncJob(s.runTick)))
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info(fmt.Sprintf("reminder: scheduler started, interval=%s", s.interval))
	return nil
}

// Stop stops issuing new ticks and waits for an in-flight tick to drain,
// bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	drained := s.cron.Stop()
	select {
	case <-drained.Done():
		s.logger.Info("reminder: scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runTick() {
	// a tick may never outlive its own interval
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	s.Tick(ctx)
}

// Tick runs one scheduler pass. Task-level failures are isolated per task;
// a candidate-query failure aborts the whole tick. Nothing is fatal to the
// process.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.nowFunc().UTC()

	cands, err := s.repo.QueryDueCandidates(ctx, now)
	if err != nil {
		s.logger.Error("reminder: querying due tasks failed", err)
		return
	}
	if len(cands) == 0 {
		s.logger.Debug("reminder: no due tasks")
		s.pruneAttempts(nil)
		return
	}

	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		seen[c.TaskID] = struct{}{}
		s.dispatch(ctx, c)
	}
	s.pruneAttempts(seen)
}

func (s *Scheduler) dispatch(ctx context.Context, c Candidate) {
	if !c.Token.Valid || c.Token.String == "" {
		s.logger.Debug(fmt.Sprintf("reminder: skip, no push token for profile %s", c.OwnerID))
		return
	}
	if s.attempts[c.TaskID] >= s.maxAttempts {
		s.logger.Warn(fmt.Sprintf("reminder: task %s exhausted %d delivery attempts, skipping", c.TaskID, s.maxAttempts))
		return
	}

	notif := core.Notification{
		Title: NotificationTitle,
		Body:  fmt.Sprintf("Your scheduled session %q is starting now.", c.Title),
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	err := s.pushSvc.Send(sendCtx, c.Token.String, notif)
	cancel()

	if err == nil {
		// write-after-confirm: the flag flips only once a send succeeded.
		// A crash between send and write re-notifies next tick (at-least-once).
		if err = s.repo.MarkTaskNotified(ctx, c.TaskID); err != nil {
			s.logger.Error(fmt.Sprintf("reminder: marking task %s notified failed", c.TaskID), err)
		}
		delete(s.attempts, c.TaskID)
		return
	}

	if core.IsTokenNotRegistered(err) {
		// dead registration: clearing the token is the loop-breaker; the task
		// stays unnotified and is skipped on later ticks via the null token.
		s.logger.Info(fmt.Sprintf("reminder: token is dead, clearing for profile %s", c.OwnerID))
		if cerr := s.repo.ClearPushToken(ctx, c.OwnerID); cerr != nil {
			s.logger.Error(fmt.Sprintf("reminder: clearing token for profile %s failed", c.OwnerID), cerr)
		}
		delete(s.attempts, c.TaskID)
		return
	}

	// transient: no state change, retried next tick within the attempt budget
	s.attempts[c.TaskID]++
	s.logger.Error(fmt.Sprintf("reminder: delivery for task %s failed (attempt %d/%d)", c.TaskID, s.attempts[c.TaskID], s.maxAttempts), err)
}

// pruneAttempts drops attempt counters for tasks no longer in the candidate
// set (notified, deleted, or reminder moved).
func (s *Scheduler) pruneAttempts(seen map[string]struct{}) {
	for id := range s.attempts {
		if _, ok := seen[id]; !ok {
			delete(s.attempts, id)
		}
	}
}

// cronLogger adapts core.Logger to the cron.Logger interface.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.logger.Debug("reminder: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	args := append([]interface{}{err}, kv...)
	l.logger.Error("reminder: "+msg, args...)
}
