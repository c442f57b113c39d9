package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core/profile"
)

type profileRow struct {
	ID                string      `db:"id"`
	Email             string      `db:"email"`
	FullName          string      `db:"full_name"`
	AvatarURL         string      `db:"avatar_url"`
	PasswordHash      []byte      `db:"password_hash"`
	FCMToken          null.String `db:"fcm_token"`
	StudyPoints       int         `db:"study_points"`
	CurrentStreak     int         `db:"current_streak"`
	LastStudyDate     null.Time   `db:"last_study_date"`
	TotalStudyMinutes int         `db:"total_study_minutes"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

func (r profileRow) toModel() profile.Profile {
	return profile.Profile{
		ID:                r.ID,
		Email:             r.Email,
		FullName:          r.FullName,
		AvatarURL:         r.AvatarURL,
		PasswordHash:      r.PasswordHash,
		FCMToken:          r.FCMToken,
		StudyPoints:       r.StudyPoints,
		CurrentStreak:     r.CurrentStreak,
		LastStudyDate:     r.LastStudyDate,
		TotalStudyMinutes: r.TotalStudyMinutes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...profile.Profile) error {
	exclIDs := make([]string, 0, len(excluded))
	for _, p := range excluded {
		exclIDs = append(exclIDs, p.ID)
	}

	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE email = ?)`
	args := []interface{}{email}
	if len(exclIDs) > 0 {
		var err error
		query = `SELECT EXISTS (SELECT 1 FROM profiles WHERE email = ? AND id NOT IN (?))`
		query, args, err = sqlx.In(query, email, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return profile.ErrEmailExists
	}
	return nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	const query = `
		INSERT INTO profiles (id, email, full_name, avatar_url, password_hash, fcm_token,
			study_points, current_streak, last_study_date, total_study_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, query,
		p.ID, p.Email, p.FullName, p.AvatarURL, p.PasswordHash, p.FCMToken,
		p.StudyPoints, p.CurrentStreak, p.LastStudyDate, p.TotalStudyMinutes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	return repo.get(ctx, `SELECT * FROM profiles WHERE id = $1`, id)
}

func (repo *profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	return repo.get(ctx, `SELECT * FROM profiles WHERE email = $1`, email)
}

func (repo *profileRepository) get(ctx context.Context, query string, arg interface{}) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile")
	}
	return row.toModel(), nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	const query = `
		UPDATE profiles
		SET full_name = $2, avatar_url = $3, password_hash = $4, fcm_token = $5,
			study_points = $6, current_streak = $7, last_study_date = $8,
			total_study_minutes = $9, updated_at = $10
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		p.ID, p.FullName, p.AvatarURL, p.PasswordHash, p.FCMToken,
		p.StudyPoints, p.CurrentStreak, p.LastStudyDate, p.TotalStudyMinutes, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (repo *profileRepository) SetPushToken(ctx context.Context, id string, token null.String) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE profiles SET fcm_token = $2, updated_at = now() WHERE id = $1`, id, token)
	if err != nil {
		return errors.Wrap(err, "setting push token")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (repo *profileRepository) QueryLeaderboard(ctx context.Context, limit int) ([]profile.LeaderboardEntry, error) {
	const query = `
		SELECT full_name, avatar_url, study_points
		FROM profiles
		ORDER BY study_points DESC
		LIMIT $1`
	rows := make([]struct {
		FullName    string `db:"full_name"`
		AvatarURL   string `db:"avatar_url"`
		StudyPoints int    `db:"study_points"`
	}, 0, limit)
	if err := repo.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}

	entries := make([]profile.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, profile.LeaderboardEntry{
			FullName:    r.FullName,
			AvatarURL:   r.AvatarURL,
			StudyPoints: r.StudyPoints,
		})
	}
	return entries, nil
}
