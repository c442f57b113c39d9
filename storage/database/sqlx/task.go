package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core/task"
)

type taskRow struct {
	ID           string    `db:"id"`
	OwnerID      string    `db:"owner_id"`
	Title        string    `db:"title"`
	Start        time.Time `db:"start_time"`
	End          null.Time `db:"end_time"`
	Priority     string    `db:"priority"`
	Status       string    `db:"status"`
	ReminderTime time.Time `db:"reminder_time"`
	Notified     bool      `db:"notified"`
	CompletedAt  null.Time `db:"completed_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r taskRow) toModel() task.Task {
	return task.Task{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Start:        r.Start,
		End:          r.End,
		Priority:     r.Priority,
		Status:       r.Status,
		ReminderTime: r.ReminderTime,
		Notified:     r.Notified,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	const query = `
		INSERT INTO tasks (id, owner_id, title, start_time, end_time, priority, status,
			reminder_time, notified, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Title, t.Start, t.End, t.Priority, t.Status,
		t.ReminderTime, t.Notified, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM tasks WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return row.toModel(), nil
}

func (repo *taskRepository) QueryTasksByOwner(ctx context.Context, ownerID string, filter task.QueryFilter) ([]task.Task, error) {
	query := `SELECT * FROM tasks WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $2`
	}
	if filter.Upcoming {
		query += ` AND start_time > now()`
	}
	query += ` ORDER BY start_time`

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]task.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.toModel()
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	const query = `
		UPDATE tasks
		SET title = $2, start_time = $3, end_time = $4, priority = $5, status = $6,
			reminder_time = $7, notified = $8, completed_at = $9, updated_at = $10
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Start, t.End, t.Priority, t.Status,
		t.ReminderTime, t.Notified, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}
	return nil
}
