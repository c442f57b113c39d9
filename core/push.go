package core

import (
	"context"
	"errors"
)

type (
	// Notification is a display push notification payload.
	Notification struct {
		Title string
		Body  string
	}

	// BatchResult reports the outcome of a multicast delivery.
	BatchResult struct {
		SuccessCount int
		FailureCount int
	}

	// PushService is any service that can deliver push notifications to
	// device registration tokens.
	PushService interface {
		// Send delivers a notification to a single registration token.
		Send(ctx context.Context, token string, notif Notification) error
		// SendMulticast delivers a notification to multiple registration tokens,
		// reporting per-batch success/failure counts. Individual token failures
		// do not fail the batch.
		SendMulticast(ctx context.Context, tokens []string, notif Notification) (BatchResult, error)
	}
)

// ErrTokenNotRegistered indicates a registration token that will never be
// deliverable again (uninstalled app, rotated token). Implementations wrap
// their provider-specific "not registered" / "entity not found" classes
// with this error.
var ErrTokenNotRegistered = errors.New("registration token is not registered")

// IsTokenNotRegistered reports whether a delivery error is permanent,
// i.e. retrying the same token can never succeed.
func IsTokenNotRegistered(err error) bool {
	return errors.Is(err, ErrTokenNotRegistered)
}
