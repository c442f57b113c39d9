package group

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studyhuddle/backend/core"
)

// Material types
const (
	MaterialFlashcards = "flashcards"
	MaterialSummary    = "summary"
)

// StudyGroup is a shared chatroom for a set of profiles.
type StudyGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewStudyGroup contains information needed to create a StudyGroup.
type NewStudyGroup struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (ng *NewStudyGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// Message is a chat message posted to a StudyGroup.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewMessage contains information needed to post a Message.
type NewMessage struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

// SavedMaterial is AI-generated study content (a flashcard deck or a summary)
// a profile saved for later.
type SavedMaterial struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"user_id"`
	Title        string          `json:"title"`
	MaterialType string          `json:"material_type"`
	Content      json.RawMessage `json:"content"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
}

// NewMaterial contains information needed to save a SavedMaterial.
type NewMaterial struct {
	Title        string          `json:"title" validate:"required,max=120"`
	MaterialType string          `json:"material_type" validate:"required,oneof=flashcards summary"`
	Content      json.RawMessage `json:"content" validate:"required"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.MaterialType = core.CleanString(nm.MaterialType, true /* lower */)
	return validate.Struct(nm)
}

// ChatNotification is a request to fan a chat message out to the other
// members of a study group as a push notification.
type ChatNotification struct {
	SenderName   string `json:"senderName" validate:"required"`
	MessageText  string `json:"messageText" validate:"required"`
	StudyGroupID string `json:"studyGroupId" validate:"required"`
	SenderID     string `json:"senderId" validate:"required"`
}

func (cn *ChatNotification) Validate(validate *validator.Validate) error {
	cn.SenderName = core.CleanString(cn.SenderName)
	return validate.Struct(cn)
}
