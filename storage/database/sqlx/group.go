package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/studyhuddle/backend/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.StudyGroup) (group.StudyGroup, error) {
	const query = `
		INSERT INTO study_groups (id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, query, g.ID, g.Name, g.CreatedBy, g.CreatedAt); err != nil {
		return group.StudyGroup{}, errors.Wrap(err, "inserting study group")
	}
	return g, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.StudyGroup, error) {
	var row struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedBy string    `db:"created_by"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM study_groups WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return group.StudyGroup{}, group.ErrNotFound
		}
		return group.StudyGroup{}, errors.Wrap(err, "getting study group")
	}
	return group.StudyGroup(row), nil
}

func (repo *groupRepository) QueryGroupsByMember(ctx context.Context, profileID string) ([]group.StudyGroup, error) {
	const query = `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM study_groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.profile_id = $1
		ORDER BY g.created_at`
	var rows []struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedBy string    `db:"created_by"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query, profileID); err != nil {
		return nil, errors.Wrap(err, "querying study groups")
	}

	groups := make([]group.StudyGroup, len(rows))
	for i, r := range rows {
		groups[i] = group.StudyGroup(r)
	}
	return groups, nil
}

func (repo *groupRepository) AddMember(ctx context.Context, groupID, profileID string) error {
	const query = `
		INSERT INTO group_members (group_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, groupID, profileID)
	return errors.Wrap(err, "adding group member")
}

func (repo *groupRepository) RemoveMember(ctx context.Context, groupID, profileID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND profile_id = $2`, groupID, profileID)
	return errors.Wrap(err, "removing group member")
}

func (repo *groupRepository) IsMember(ctx context.Context, groupID, profileID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND profile_id = $2)`,
		groupID, profileID)
	return exists, errors.Wrap(err, "checking membership")
}

func (repo *groupRepository) MemberPushTokens(ctx context.Context, groupID, excludedProfileID string) ([]string, error) {
	const query = `
		SELECT p.fcm_token
		FROM group_members gm
		JOIN profiles p ON p.id = gm.profile_id
		WHERE gm.group_id = $1
		  AND gm.profile_id <> $2
		  AND p.fcm_token IS NOT NULL
		  AND p.fcm_token <> ''`
	var tokens []string
	if err := repo.db.SelectContext(ctx, &tokens, query, groupID, excludedProfileID); err != nil {
		return nil, errors.Wrap(err, "querying member push tokens")
	}
	return tokens, nil
}

func (repo *groupRepository) CreateMessage(ctx context.Context, m group.Message) (group.Message, error) {
	const query = `
		INSERT INTO messages (id, group_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, query, m.ID, m.GroupID, m.SenderID, m.Content, m.CreatedAt); err != nil {
		return group.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo *groupRepository) QueryMessages(ctx context.Context, groupID string, limit int) ([]group.Message, error) {
	const query = `
		SELECT id, group_id, sender_id, content, created_at
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	var rows []struct {
		ID        string    `db:"id"`
		GroupID   string    `db:"group_id"`
		SenderID  string    `db:"sender_id"`
		Content   string    `db:"content"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query, groupID, limit); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	// newest-first from the DB, chronological for the client
	msgs := make([]group.Message, len(rows))
	for i, r := range rows {
		msgs[len(rows)-1-i] = group.Message(r)
	}
	return msgs, nil
}

func (repo *groupRepository) CreateMaterial(ctx context.Context, m group.SavedMaterial) (group.SavedMaterial, error) {
	const query = `
		INSERT INTO saved_materials (id, owner_id, title, material_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Title, m.MaterialType, []byte(m.Content), m.CreatedAt); err != nil {
		return group.SavedMaterial{}, errors.Wrap(err, "inserting saved material")
	}
	return m, nil
}

type materialRow struct {
	ID           string    `db:"id"`
	OwnerID      string    `db:"owner_id"`
	Title        string    `db:"title"`
	MaterialType string    `db:"material_type"`
	Content      []byte    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r materialRow) toModel() group.SavedMaterial {
	return group.SavedMaterial{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		MaterialType: r.MaterialType,
		Content:      json.RawMessage(r.Content),
		CreatedAt:    r.CreatedAt,
	}
}

func (repo *groupRepository) GetMaterialByID(ctx context.Context, id string) (group.SavedMaterial, error) {
	var row materialRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM saved_materials WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return group.SavedMaterial{}, group.ErrMaterialNotFound
		}
		return group.SavedMaterial{}, errors.Wrap(err, "getting saved material")
	}
	return row.toModel(), nil
}

func (repo *groupRepository) QueryMaterialsByOwner(ctx context.Context, ownerID string) ([]group.SavedMaterial, error) {
	const query = `SELECT * FROM saved_materials WHERE owner_id = $1 ORDER BY created_at DESC`
	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying saved materials")
	}

	mats := make([]group.SavedMaterial, len(rows))
	for i, r := range rows {
		mats[i] = r.toModel()
	}
	return mats, nil
}

func (repo *groupRepository) DeleteMaterial(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM saved_materials WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting saved material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.ErrMaterialNotFound
	}
	return nil
}
