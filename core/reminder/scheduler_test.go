package reminder

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core"
	logsvc "github.com/studyhuddle/backend/services/logger"
	dummypush "github.com/studyhuddle/backend/services/push/dummy"
)

type fakeRepo struct {
	mu       sync.Mutex
	cands    []Candidate
	queryErr error
	markErr  error
	notified map[string]bool
	cleared  map[string]bool
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo(cands ...Candidate) *fakeRepo {
	return &fakeRepo{
		cands:    cands,
		notified: make(map[string]bool),
		cleared:  make(map[string]bool),
	}
}

func (repo *fakeRepo) QueryDueCandidates(context.Context, time.Time) ([]Candidate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.queryErr != nil {
		return nil, repo.queryErr
	}

	// notified tasks fall out of the candidate set
	var cands []Candidate
	for _, c := range repo.cands {
		if !repo.notified[c.TaskID] {
			if repo.cleared[c.OwnerID] {
				c.Token = null.String{}
			}
			cands = append(cands, c)
		}
	}
	return cands, nil
}

func (repo *fakeRepo) MarkTaskNotified(_ context.Context, taskID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.markErr != nil {
		return repo.markErr
	}
	repo.notified[taskID] = true
	return nil
}

func (repo *fakeRepo) ClearPushToken(_ context.Context, ownerID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.cleared[ownerID] = true
	return nil
}

func newTestScheduler(repo Repository, push core.PushService) *Scheduler {
	conf := &core.Config{}
	conf.Scheduler.TickInterval = time.Minute
	conf.Scheduler.DispatchTimeout = time.Second
	conf.Scheduler.MaxAttempts = 2
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return NewScheduler(repo, push, logger, conf)
}

func TestScheduler_Tick_delivers(t *testing.T) {
	repo := newFakeRepo(
		Candidate{TaskID: "t1", Title: "Math revision", OwnerID: "p1", Token: null.StringFrom("tok1")},
		Candidate{TaskID: "t2", Title: "Chemistry", OwnerID: "p2", Token: null.StringFrom("tok2")},
	)
	push := dummypush.NewService()
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())

	assert.Len(t, push.Sent, 2)
	assert.Equal(t, NotificationTitle, push.Sent[0].Notification.Title)
	assert.Equal(t, `Your scheduled session "Math revision" is starting now.`, push.Sent[0].Notification.Body)
	assert.True(t, repo.notified["t1"])
	assert.True(t, repo.notified["t2"])
	assert.Empty(t, s.attempts)

	// a delivered task does not come back
	s.Tick(context.Background())
	assert.Len(t, push.Sent, 2)
}

func TestScheduler_Tick_skipsMissingToken(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1"})
	push := dummypush.NewService()
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())

	assert.Empty(t, push.Sent)
	assert.False(t, repo.notified["t1"], "task must stay unnotified without a delivery attempt")
}

func TestScheduler_Tick_transientFailureRetriesWithinBudget(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("tok1")})
	push := dummypush.NewService()
	push.Errs["tok1"] = errors.New("service unavailable")
	s := newTestScheduler(repo, push) // maxAttempts = 2

	s.Tick(context.Background())
	assert.Equal(t, 1, s.attempts["t1"])
	assert.False(t, repo.notified["t1"])

	s.Tick(context.Background())
	assert.Equal(t, 2, s.attempts["t1"])

	// budget exhausted: still a candidate, but no further sends
	s.Tick(context.Background())
	assert.Equal(t, 2, s.attempts["t1"])
	assert.Empty(t, push.Sent)

	// recovery after the backend comes back would be a no-op here; the task
	// stays skipped until its counter is pruned out of the candidate set
	delete(push.Errs, "tok1")
	s.Tick(context.Background())
	assert.Empty(t, push.Sent)
}

func TestScheduler_Tick_transientFailureThenSuccess(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("tok1")})
	push := dummypush.NewService()
	push.Errs["tok1"] = errors.New("timeout")
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())
	assert.Equal(t, 1, s.attempts["t1"])

	delete(push.Errs, "tok1")
	s.Tick(context.Background())

	assert.Len(t, push.Sent, 1)
	assert.True(t, repo.notified["t1"])
	assert.Empty(t, s.attempts)
}

func TestScheduler_Tick_deadTokenIsCleared(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("dead")})
	push := dummypush.NewService()
	push.Errs["dead"] = errors.Wrap(core.ErrTokenNotRegistered, "requested entity was not found")
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())

	assert.True(t, repo.cleared["p1"])
	assert.False(t, repo.notified["t1"], "task stays unnotified after a permanent failure")
	assert.Empty(t, s.attempts)

	// next tick the token is gone; the task is skipped, not retried
	s.Tick(context.Background())
	assert.Empty(t, push.Sent)
}

func TestScheduler_Tick_queryFailureAbortsTick(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("tok1")})
	repo.queryErr = errors.New("db down")
	push := dummypush.NewService()
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())
	assert.Empty(t, push.Sent)
}

func TestScheduler_Tick_markFailureKeepsTaskEligible(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("tok1")})
	repo.markErr = errors.New("db down")
	push := dummypush.NewService()
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())
	assert.Len(t, push.Sent, 1)
	assert.False(t, repo.notified["t1"])

	// at-least-once: the next tick re-sends
	repo.markErr = nil
	s.Tick(context.Background())
	assert.Len(t, push.Sent, 2)
	assert.True(t, repo.notified["t1"])
}

func TestScheduler_pruneAttempts(t *testing.T) {
	repo := newFakeRepo(Candidate{TaskID: "t1", Title: "Bio", OwnerID: "p1", Token: null.StringFrom("tok1")})
	push := dummypush.NewService()
	push.Errs["tok1"] = errors.New("timeout")
	s := newTestScheduler(repo, push)

	s.Tick(context.Background())
	assert.Equal(t, 1, s.attempts["t1"])

	// the task disappears from the candidate set (deleted, reminder moved...)
	repo.mu.Lock()
	repo.cands = nil
	repo.mu.Unlock()

	s.Tick(context.Background())
	assert.Empty(t, s.attempts)
}

func TestScheduler_StartStop(t *testing.T) {
	repo := newFakeRepo()
	push := dummypush.NewService()
	s := newTestScheduler(repo, push)
	s.interval = 50 * time.Millisecond

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
