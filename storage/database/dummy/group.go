package dummydb

import (
	"context"
	"sort"

	"github.com/studyhuddle/backend/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.StudyGroup) (group.StudyGroup, error) {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	repo.db.group.table[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id string) (group.StudyGroup, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	if g, ok := repo.db.group.table[id]; ok {
		return *g, nil
	}
	return group.StudyGroup{}, group.ErrNotFound
}

func (repo *groupRepository) QueryGroupsByMember(_ context.Context, profileID string) ([]group.StudyGroup, error) {
	repo.db.member.RLock()
	memberOf := make(map[string]struct{})
	for groupID, members := range repo.db.member.table {
		if _, ok := members[profileID]; ok {
			memberOf[groupID] = struct{}{}
		}
	}
	repo.db.member.RUnlock()

	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	var groups []group.StudyGroup
	for id := range memberOf {
		if g, ok := repo.db.group.table[id]; ok {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func (repo *groupRepository) AddMember(_ context.Context, groupID, profileID string) error {
	repo.db.member.Lock()
	defer repo.db.member.Unlock()

	members, ok := repo.db.member.table[groupID]
	if !ok {
		members = make(map[string]struct{})
		repo.db.member.table[groupID] = members
	}
	members[profileID] = struct{}{}
	return nil
}

func (repo *groupRepository) RemoveMember(_ context.Context, groupID, profileID string) error {
	repo.db.member.Lock()
	defer repo.db.member.Unlock()

	if members, ok := repo.db.member.table[groupID]; ok {
		delete(members, profileID)
	}
	return nil
}

func (repo *groupRepository) IsMember(_ context.Context, groupID, profileID string) (bool, error) {
	repo.db.member.RLock()
	defer repo.db.member.RUnlock()

	members, ok := repo.db.member.table[groupID]
	if !ok {
		return false, nil
	}
	_, ok = members[profileID]
	return ok, nil
}

func (repo *groupRepository) MemberPushTokens(_ context.Context, groupID, excludedProfileID string) ([]string, error) {
	repo.db.member.RLock()
	ids := make([]string, 0, len(repo.db.member.table[groupID]))
	for id := range repo.db.member.table[groupID] {
		if id != excludedProfileID {
			ids = append(ids, id)
		}
	}
	repo.db.member.RUnlock()
	sort.Strings(ids)

	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	var tokens []string
	for _, id := range ids {
		p, ok := repo.db.profile.table[id]
		if !ok {
			continue
		}
		if p.FCMToken.Valid && p.FCMToken.String != "" {
			tokens = append(tokens, p.FCMToken.String)
		}
	}
	return tokens, nil
}

func (repo *groupRepository) CreateMessage(_ context.Context, m group.Message) (group.Message, error) {
	repo.db.message.Lock()
	defer repo.db.message.Unlock()

	repo.db.message.table = append(repo.db.message.table, m)
	return m, nil
}

func (repo *groupRepository) QueryMessages(_ context.Context, groupID string, limit int) ([]group.Message, error) {
	repo.db.message.RLock()
	defer repo.db.message.RUnlock()

	var msgs []group.Message
	for _, m := range repo.db.message.table {
		if m.GroupID == groupID {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:] // most recent, chronological
	}
	return msgs, nil
}

func (repo *groupRepository) CreateMaterial(_ context.Context, m group.SavedMaterial) (group.SavedMaterial, error) {
	repo.db.material.Lock()
	defer repo.db.material.Unlock()

	repo.db.material.table[m.ID] = &m
	return m, nil
}

func (repo *groupRepository) GetMaterialByID(_ context.Context, id string) (group.SavedMaterial, error) {
	repo.db.material.RLock()
	defer repo.db.material.RUnlock()

	if m, ok := repo.db.material.table[id]; ok {
		return *m, nil
	}
	return group.SavedMaterial{}, group.ErrMaterialNotFound
}

func (repo *groupRepository) QueryMaterialsByOwner(_ context.Context, ownerID string) ([]group.SavedMaterial, error) {
	repo.db.material.RLock()
	defer repo.db.material.RUnlock()

	var mats []group.SavedMaterial
	for _, m := range repo.db.material.table {
		if m.OwnerID == ownerID {
			mats = append(mats, *m)
		}
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	return mats, nil
}

func (repo *groupRepository) DeleteMaterial(_ context.Context, id string) error {
	repo.db.material.Lock()
	defer repo.db.material.Unlock()

	if _, ok := repo.db.material.table[id]; !ok {
		return group.ErrMaterialNotFound
	}
	delete(repo.db.material.table, id)
	return nil
}
