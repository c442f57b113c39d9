package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core/reminder"
)

type reminderRepository struct {
	db *DB
}

var _ reminder.Repository = (*reminderRepository)(nil) // interface compliance check

func NewReminderRepository(db *DB) reminder.Repository {
	return &reminderRepository{db: db}
}

func (repo *reminderRepository) QueryDueCandidates(_ context.Context, now time.Time) ([]reminder.Candidate, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	var cands []reminder.Candidate
	for _, t := range repo.db.task.table {
		if t.Notified || t.ReminderTime.After(now) {
			continue
		}
		c := reminder.Candidate{TaskID: t.ID, Title: t.Title, OwnerID: t.OwnerID}
		if p, ok := repo.db.profile.table[t.OwnerID]; ok {
			c.Token = p.FCMToken
		}
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].TaskID < cands[j].TaskID })
	return cands, nil
}

func (repo *reminderRepository) MarkTaskNotified(_ context.Context, taskID string) error {
	repo.db.task.Lock()
	defer repo.db.task.Unlock()

	if t, ok := repo.db.task.table[taskID]; ok {
		t.Notified = true
	}
	return nil
}

func (repo *reminderRepository) ClearPushToken(_ context.Context, ownerID string) error {
	repo.db.profile.Lock()
	defer repo.db.profile.Unlock()

	if p, ok := repo.db.profile.table[ownerID]; ok {
		p.FCMToken = null.String{}
	}
	return nil
}
