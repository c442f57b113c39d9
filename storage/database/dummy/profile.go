package dummydb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) query() []profile.Profile {
	profiles := make([]profile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		profiles = append(profiles, *p)
	}
	return profiles
}

func (repo *profileRepository) CheckEmailUniqueness(_ context.Context, email string, excluded ...profile.Profile) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.query() {
		if p.Email != email {
			continue
		}
		if isExcluded(p, excluded) {
			continue
		}
		return profile.ErrEmailExists
	}
	return nil
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.query() {
		if p.Email == email {
			return p, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	p.Email = orig.Email
	p.CreatedAt = orig.CreatedAt
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) SetPushToken(_ context.Context, id string, token null.String) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return profile.ErrNotFound
	}
	p.FCMToken = token
	return nil
}

func (repo *profileRepository) QueryLeaderboard(_ context.Context, limit int) ([]profile.LeaderboardEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := repo.query()
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].StudyPoints > profiles[j].StudyPoints })
	if len(profiles) > limit {
		profiles = profiles[:limit]
	}

	entries := make([]profile.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, profile.LeaderboardEntry{
			FullName:    p.FullName,
			AvatarURL:   p.AvatarURL,
			StudyPoints: p.StudyPoints,
		})
	}
	return entries, nil
}

func isExcluded(p profile.Profile, excluded []profile.Profile) bool {
	for _, e := range excluded {
		if e.ID == p.ID {
			return true
		}
	}
	return false
}
