package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core"
)

var (
	ErrNotFound = errors.New("task not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		// QueryTasksByOwner applies AND operation on available QueryFilter fields.
		QueryTasksByOwner(ctx context.Context, ownerID string, filter QueryFilter) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	// Awarder credits a profile for completing a task.
	Awarder interface {
		AwardTaskCompletion(ctx context.Context, profileID string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ownerID string, nt NewTask) (Task, error)
		Query(ctx context.Context, ownerID string, filter QueryFilter) ([]Task, error)
		GetByID(ctx context.Context, ownerID, id string) (Task, error)
		Update(ctx context.Context, ownerID, id string, ut UpdateTask) (Task, error)
		Complete(ctx context.Context, ownerID, id string) (Task, error)
		Delete(ctx context.Context, ownerID, id string) error
	}

	service struct {
		repo    Repository
		awarder Awarder
		logger  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, awarder Awarder, logger core.Logger) ServiceInterface {
	return &service{repo: repo, awarder: awarder, logger: logger}
}

func (svc *service) Create(ctx context.Context, ownerID string, nt NewTask) (Task, error) {
	now := nowFunc().UTC()
	t := Task{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     nt.Title,
		Start:     nt.Start.UTC(),
		Priority:  nt.Priority,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if nt.End != nil {
		t.End = null.TimeFrom(nt.End.UTC())
	}
	// the reminder defaults to the start time
	if nt.ReminderTime != nil {
		t.ReminderTime = nt.ReminderTime.UTC()
	} else {
		t.ReminderTime = t.Start
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) Query(ctx context.Context, ownerID string, filter QueryFilter) ([]Task, error) {
	filter.Clean()
	return svc.repo.QueryTasksByOwner(ctx, ownerID, filter)
}

// GetByID fetches a task and enforces ownership: reading another owner's
// task is a permission error, not a lookup miss.
func (svc *service) GetByID(ctx context.Context, ownerID, id string) (Task, error) {
	t, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.OwnerID != ownerID {
		return Task{}, core.ErrPermissionDenied
	}
	return t, nil
}

func (svc *service) Update(ctx context.Context, ownerID, id string, ut UpdateTask) (Task, error) {
	t, err := svc.GetByID(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}

	t.Title = ut.Title
	t.Priority = ut.Priority
	if ut.Start != nil {
		t.Start = ut.Start.UTC()
	}
	if ut.End != nil {
		t.End = null.TimeFrom(ut.End.UTC())
	}
	if ut.ReminderTime != nil {
		rt := ut.ReminderTime.UTC()
		// a moved reminder becomes eligible for notification again
		if rt.After(t.ReminderTime) {
			t.Notified = false
		}
		t.ReminderTime = rt
	}
	t.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

// Complete marks a task done and credits the owner's study points and streak.
func (svc *service) Complete(ctx context.Context, ownerID, id string) (Task, error) {
	t, err := svc.GetByID(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}
	if t.IsCompleted() {
		return t, nil // already done; no double credit
	}

	now := nowFunc().UTC()
	t.Status = StatusCompleted
	t.CompletedAt = null.TimeFrom(now)
	t.UpdatedAt = now
	t, err = svc.repo.UpdateTask(ctx, t)
	if err != nil {
		return Task{}, err
	}

	if err = svc.awarder.AwardTaskCompletion(ctx, ownerID); err != nil {
		// the task is already completed; losing the credit is not worth a 500
		svc.logger.Error("task: awarding completion failed", err)
	}
	return t, nil
}

func (svc *service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := svc.GetByID(ctx, ownerID, id); err != nil {
		return err
	}
	return svc.repo.DeleteTask(ctx, id)
}
