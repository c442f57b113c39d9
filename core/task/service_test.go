package task

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/studyhuddle/backend/core"
	logsvc "github.com/studyhuddle/backend/services/logger"
)

type fakeRepo struct {
	tasks map[string]Task
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: make(map[string]Task)}
}

func (repo *fakeRepo) CreateTask(_ context.Context, t Task) (Task, error) {
	repo.tasks[t.ID] = t
	return t, nil
}

func (repo *fakeRepo) GetTaskByID(_ context.Context, id string) (Task, error) {
	if t, ok := repo.tasks[id]; ok {
		return t, nil
	}
	return Task{}, ErrNotFound
}

func (repo *fakeRepo) QueryTasksByOwner(_ context.Context, ownerID string, filter QueryFilter) ([]Task, error) {
	var tasks []Task
	for _, t := range repo.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (repo *fakeRepo) UpdateTask(_ context.Context, t Task) (Task, error) {
	if _, ok := repo.tasks[t.ID]; !ok {
		return Task{}, ErrNotFound
	}
	repo.tasks[t.ID] = t
	return t, nil
}

func (repo *fakeRepo) DeleteTask(_ context.Context, id string) error {
	if _, ok := repo.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(repo.tasks, id)
	return nil
}

type fakeAwarder struct {
	awarded []string
	err     error
}

func (a *fakeAwarder) AwardTaskCompletion(_ context.Context, profileID string) error {
	if a.err != nil {
		return a.err
	}
	a.awarded = append(a.awarded, profileID)
	return nil
}

func setup() (ServiceInterface, *fakeRepo, *fakeAwarder) {
	repo := newFakeRepo()
	awarder := &fakeAwarder{}
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return NewService(repo, awarder, logger), repo, awarder
}

func TestService_Create_defaults(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()
	start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Revise calculus", Start: start})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	assert.NotEmpty(t, tsk.ID)
	assert.Equal(t, "owner", tsk.OwnerID)
	assert.Equal(t, PriorityMedium, tsk.Priority)
	assert.Equal(t, StatusPending, tsk.Status)
	assert.Equal(t, start, tsk.ReminderTime, "reminder defaults to start")
	assert.False(t, tsk.Notified)

	// explicit reminder wins
	rt := start.Add(-15 * time.Minute)
	tsk, err = svc.Create(ctx, "owner", NewTask{Title: "Quiz prep", Start: start, Priority: PriorityHigh, ReminderTime: &rt})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.Equal(t, PriorityHigh, tsk.Priority)
	assert.Equal(t, rt, tsk.ReminderTime)
}

func TestService_GetByID_enforcesOwnership(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Mine", Start: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	_, err = svc.GetByID(ctx, "intruder", tsk.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	_, err = svc.GetByID(ctx, "owner", "unknown")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	got, err := svc.GetByID(ctx, "owner", tsk.ID)
	assert.NoError(t, err)
	assert.Equal(t, tsk.ID, got.ID)
}

func TestService_Update_movedReminderRearms(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()
	start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Session", Start: start})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// simulate an already delivered reminder
	tsk.Notified = true
	repo.tasks[tsk.ID] = tsk

	// moving the reminder later makes it eligible again
	later := start.Add(time.Hour)
	got, err := svc.Update(ctx, "owner", tsk.ID, UpdateTask{Title: tsk.Title, Priority: tsk.Priority, ReminderTime: &later})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	assert.False(t, got.Notified)
	assert.Equal(t, later, got.ReminderTime)

	// moving it earlier (or not at all) does not re-arm
	got.Notified = true
	repo.tasks[got.ID] = got
	earlier := start.Add(-time.Hour)
	got, err = svc.Update(ctx, "owner", tsk.ID, UpdateTask{Title: tsk.Title, Priority: tsk.Priority, ReminderTime: &earlier})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	assert.True(t, got.Notified)
}

func TestService_Complete(t *testing.T) {
	svc, _, awarder := setup()
	ctx := context.Background()

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Worksheet", Start: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := svc.Complete(ctx, "owner", tsk.ID)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	assert.Equal(t, StatusCompleted, got.Status)
	assert.True(t, got.CompletedAt.Valid)
	assert.Equal(t, []string{"owner"}, awarder.awarded)

	// completing again is a no-op: no double credit
	_, err = svc.Complete(ctx, "owner", tsk.ID)
	assert.NoError(t, err)
	assert.Len(t, awarder.awarded, 1)

	// ownership is enforced
	_, err = svc.Complete(ctx, "intruder", tsk.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
}

func TestService_Complete_awardFailureDoesNotFail(t *testing.T) {
	svc, _, awarder := setup()
	ctx := context.Background()
	awarder.err = errors.New("profile store down")

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Worksheet", Start: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := svc.Complete(ctx, "owner", tsk.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestService_Delete(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	tsk, err := svc.Create(ctx, "owner", NewTask{Title: "Old", Start: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(svc.Delete(ctx, "intruder", tsk.ID)))
	assert.NoError(t, svc.Delete(ctx, "owner", tsk.ID))
	assert.Empty(t, repo.tasks)
}
