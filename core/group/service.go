package group

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/studyhuddle/backend/core"
)

var (
	ErrNotFound         = errors.New("study group not found")
	ErrMaterialNotFound = errors.New("saved material not found")
	ErrNotMember        = errors.New("not a member of this study group")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g StudyGroup) (StudyGroup, error)
		GetGroupByID(ctx context.Context, id string) (StudyGroup, error)
		QueryGroupsByMember(ctx context.Context, profileID string) ([]StudyGroup, error)
		AddMember(ctx context.Context, groupID, profileID string) error
		RemoveMember(ctx context.Context, groupID, profileID string) error
		IsMember(ctx context.Context, groupID, profileID string) (bool, error)
		// MemberPushTokens resolves the non-null push tokens of all group
		// members except the excluded profile.
		MemberPushTokens(ctx context.Context, groupID, excludedProfileID string) ([]string, error)

		CreateMessage(ctx context.Context, m Message) (Message, error)
		QueryMessages(ctx context.Context, groupID string, limit int) ([]Message, error)

		CreateMaterial(ctx context.Context, m SavedMaterial) (SavedMaterial, error)
		GetMaterialByID(ctx context.Context, id string) (SavedMaterial, error)
		QueryMaterialsByOwner(ctx context.Context, ownerID string) ([]SavedMaterial, error)
		DeleteMaterial(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, creatorID string, ng NewStudyGroup) (StudyGroup, error)
		QueryMine(ctx context.Context, profileID string) ([]StudyGroup, error)
		Join(ctx context.Context, groupID, profileID string) error
		Leave(ctx context.Context, groupID, profileID string) error
		PostMessage(ctx context.Context, groupID, senderID, senderName string, nm NewMessage) (Message, error)
		QueryMessages(ctx context.Context, groupID, profileID string, limit int) ([]Message, error)
		NotifyChat(ctx context.Context, cn ChatNotification) (core.BatchResult, error)

		SaveMaterial(ctx context.Context, ownerID string, nm NewMaterial) (SavedMaterial, error)
		QueryMaterials(ctx context.Context, ownerID string) ([]SavedMaterial, error)
		DeleteMaterial(ctx context.Context, ownerID, id string) error
	}

	service struct {
		repo    Repository
		pushSvc core.PushService
		logger  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, pushSvc core.PushService, logger core.Logger) ServiceInterface {
	return &service{repo: repo, pushSvc: pushSvc, logger: logger}
}

func (svc *service) Create(ctx context.Context, creatorID string, ng NewStudyGroup) (StudyGroup, error) {
	g := StudyGroup{
		ID:        uuid.New().String(),
		Name:      ng.Name,
		CreatedBy: creatorID,
		CreatedAt: nowFunc().UTC(),
	}
	g, err := svc.repo.CreateGroup(ctx, g)
	if err != nil {
		return StudyGroup{}, err
	}
	// the creator joins their own group
	if err = svc.repo.AddMember(ctx, g.ID, creatorID); err != nil {
		return StudyGroup{}, errors.Wrap(err, "adding creator membership")
	}
	return g, nil
}

func (svc *service) QueryMine(ctx context.Context, profileID string) ([]StudyGroup, error) {
	return svc.repo.QueryGroupsByMember(ctx, profileID)
}

func (svc *service) Join(ctx context.Context, groupID, profileID string) error {
	if _, err := svc.repo.GetGroupByID(ctx, groupID); err != nil {
		return err
	}
	return svc.repo.AddMember(ctx, groupID, profileID)
}

func (svc *service) Leave(ctx context.Context, groupID, profileID string) error {
	return svc.repo.RemoveMember(ctx, groupID, profileID)
}

// PostMessage inserts a chat message and fans it out to the other group
// members as a push notification. Fan-out failures never fail the post.
func (svc *service) PostMessage(ctx context.Context, groupID, senderID, senderName string, nm NewMessage) (Message, error) {
	if err := svc.requireMembership(ctx, groupID, senderID); err != nil {
		return Message{}, err
	}

	m := Message{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   nm.Content,
		CreatedAt: nowFunc().UTC(),
	}
	m, err := svc.repo.CreateMessage(ctx, m)
	if err != nil {
		return Message{}, err
	}

	if _, err = svc.NotifyChat(ctx, ChatNotification{
		SenderName:   senderName,
		MessageText:  m.Content,
		StudyGroupID: groupID,
		SenderID:     senderID,
	}); err != nil {
		svc.logger.Error("group: chat notification fan-out failed", err)
	}
	return m, nil
}

func (svc *service) QueryMessages(ctx context.Context, groupID, profileID string, limit int) ([]Message, error) {
	if err := svc.requireMembership(ctx, groupID, profileID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMessages(ctx, groupID, limit)
}

// NotifyChat resolves the push tokens of every group member except the
// sender and dispatches one multicast. No recipients or no tokens is a
// non-error: there is simply nothing to notify.
func (svc *service) NotifyChat(ctx context.Context, cn ChatNotification) (core.BatchResult, error) {
	tokens, err := svc.repo.MemberPushTokens(ctx, cn.StudyGroupID, cn.SenderID)
	if err != nil {
		return core.BatchResult{}, errors.Wrap(err, "resolving member push tokens")
	}
	if len(tokens) == 0 {
		return core.BatchResult{}, nil
	}

	notif := core.Notification{
		Title: fmt.Sprintf("New message from %s", cn.SenderName),
		Body:  cn.MessageText,
	}
	return svc.pushSvc.SendMulticast(ctx, tokens, notif)
}

func (svc *service) SaveMaterial(ctx context.Context, ownerID string, nm NewMaterial) (SavedMaterial, error) {
	m := SavedMaterial{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        nm.Title,
		MaterialType: nm.MaterialType,
		Content:      nm.Content,
		CreatedAt:    nowFunc().UTC(),
	}
	return svc.repo.CreateMaterial(ctx, m)
}

func (svc *service) QueryMaterials(ctx context.Context, ownerID string) ([]SavedMaterial, error) {
	return svc.repo.QueryMaterialsByOwner(ctx, ownerID)
}

func (svc *service) DeleteMaterial(ctx context.Context, ownerID, id string) error {
	m, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	if m.OwnerID != ownerID {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteMaterial(ctx, id)
}

func (svc *service) requireMembership(ctx context.Context, groupID, profileID string) error {
	ok, err := svc.repo.IsMember(ctx, groupID, profileID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
