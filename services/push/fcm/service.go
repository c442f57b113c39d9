package fcmpush

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/studyhuddle/backend/core"
)

type service struct {
	client *messaging.Client
}

var _ core.PushService = (*service)(nil)

// NewService builds a Firebase Cloud Messaging backed core.PushService.
// Credentials come from the configured service-account file, falling back to
// application default credentials.
func NewService(ctx context.Context, conf *core.Config) (core.PushService, error) {
	var opts []option.ClientOption
	if conf.Push.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Push.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing messaging client")
	}
	return &service{client: client}, nil
}

func (svc *service) Send(ctx context.Context, token string, notif core.Notification) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notif.Title,
			Body:  notif.Body,
		},
	}
	if _, err := svc.client.Send(ctx, msg); err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return errors.Wrap(core.ErrTokenNotRegistered, err.Error())
		}
		return errors.Wrap(err, "sending push")
	}
	return nil
}

func (svc *service) SendMulticast(ctx context.Context, tokens []string, notif core.Notification) (core.BatchResult, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: notif.Title,
			Body:  notif.Body,
		},
	}
	br, err := svc.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return core.BatchResult{}, errors.Wrap(err, "sending multicast push")
	}
	return core.BatchResult{SuccessCount: br.SuccessCount, FailureCount: br.FailureCount}, nil
}
