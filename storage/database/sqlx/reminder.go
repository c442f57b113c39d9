package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core/reminder"
)

type reminderRepository struct {
	db *sqlx.DB
}

var _ reminder.Repository = (*reminderRepository)(nil)

func NewReminderRepository(db *sqlx.DB) reminder.Repository {
	return &reminderRepository{db: db}
}

func (repo *reminderRepository) QueryDueCandidates(ctx context.Context, now time.Time) ([]reminder.Candidate, error) {
	const query = `
		SELECT t.id AS task_id, t.title, t.owner_id, p.fcm_token
		FROM tasks t
		JOIN profiles p ON p.id = t.owner_id
		WHERE t.reminder_time <= $1 AND NOT t.notified
		ORDER BY t.reminder_time`
	var rows []struct {
		TaskID  string      `db:"task_id"`
		Title   string      `db:"title"`
		OwnerID string      `db:"owner_id"`
		Token   null.String `db:"fcm_token"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, errors.Wrap(err, "querying due tasks")
	}

	cands := make([]reminder.Candidate, len(rows))
	for i, r := range rows {
		cands[i] = reminder.Candidate(r)
	}
	return cands, nil
}

func (repo *reminderRepository) MarkTaskNotified(ctx context.Context, taskID string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE tasks SET notified = TRUE, updated_at = now() WHERE id = $1`, taskID)
	return errors.Wrap(err, "marking task notified")
}

func (repo *reminderRepository) ClearPushToken(ctx context.Context, ownerID string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE profiles SET fcm_token = NULL, updated_at = now() WHERE id = $1`, ownerID)
	return errors.Wrap(err, "clearing push token")
}
