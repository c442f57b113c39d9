package task

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	priorityTag  = "priority"
	priorityText = "must be one of: low, medium, high"
)

// Task is a timetable entry owned by a single profile.
type Task struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"user_id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"` // UTC
	End          null.Time `json:"end,omitempty"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	ReminderTime time.Time `json:"reminder_time"` // UTC
	Notified     bool      `json:"notified"`
	CompletedAt  null.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (t *Task) IsCompleted() bool { return t.Status == StatusCompleted }

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title        string     `json:"title" validate:"required"`
	Start        time.Time  `json:"start" validate:"required"`
	End          *time.Time `json:"end"`
	Priority     string     `json:"priority" validate:"omitempty,priority"`
	ReminderTime *time.Time `json:"reminder_time"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
// Zero-valued fields keep their current value.
type UpdateTask struct {
	Title        string     `json:"title"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	Priority     string     `json:"priority" validate:"omitempty,priority"`
	ReminderTime *time.Time `json:"reminder_time"`
}

func (ut *UpdateTask) Validate(orig Task, validate *validator.Validate) error {
	title := core.CleanString(ut.Title)
	if title != "" {
		ut.Title = title
	} else {
		ut.Title = orig.Title
	}
	ut.Priority = core.CleanString(ut.Priority, true /* lower */)
	if ut.Priority == "" {
		ut.Priority = orig.Priority
	}
	return validate.Struct(ut)
}

// QueryFilter narrows a task listing.
type QueryFilter struct {
	Status   string `query:"status"`
	Upcoming bool   `query:"upcoming"` // only tasks starting after now
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// InitValidators registers task validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

// priorityValidation only allows known task priorities.
func priorityValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
