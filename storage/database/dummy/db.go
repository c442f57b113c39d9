package dummydb

import (
	"sync"

	"github.com/studyhuddle/backend/core/group"
	"github.com/studyhuddle/backend/core/profile"
	"github.com/studyhuddle/backend/core/task"
)

type (
	DB struct {
		profile  *profileTable
		task     *taskTable
		group    *groupTable
		member   *memberTable
		message  *messageTable
		material *materialTable
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.StudyGroup
	}

	// memberTable keys membership by group ID then profile ID.
	memberTable struct {
		sync.RWMutex
		table map[string]map[string]struct{}
	}

	messageTable struct {
		sync.RWMutex
		table []group.Message
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*group.SavedMaterial
	}
)

func Open() (*DB, error) {
	db := &DB{
		profile:  &profileTable{table: make(map[string]*profile.Profile)},
		task:     &taskTable{table: make(map[string]*task.Task)},
		group:    &groupTable{table: make(map[string]*group.StudyGroup)},
		member:   &memberTable{table: make(map[string]map[string]struct{})},
		message:  &messageTable{},
		material: &materialTable{table: make(map[string]*group.SavedMaterial)},
	}
	return db, nil
}
