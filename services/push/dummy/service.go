package dummypush

import (
	"context"
	"sync"

	"github.com/studyhuddle/backend/core"
)

type (
	// SentPush records one delivery attempt.
	SentPush struct {
		Token        string
		Notification core.Notification
	}

	// Service is a recording core.PushService for tests. Errs maps a token to
	// the error its delivery should fail with.
	Service struct {
		mu        sync.Mutex
		Sent      []SentPush
		Multicast []SentPush
		Errs      map[string]error
	}
)

var _ core.PushService = (*Service)(nil)

func NewService() *Service {
	return &Service{Errs: make(map[string]error)}
}

func (svc *Service) Send(_ context.Context, token string, notif core.Notification) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err, ok := svc.Errs[token]; ok {
		return err
	}
	svc.Sent = append(svc.Sent, SentPush{Token: token, Notification: notif})
	return nil
}

func (svc *Service) SendMulticast(_ context.Context, tokens []string, notif core.Notification) (core.BatchResult, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var res core.BatchResult
	for _, token := range tokens {
		if _, ok := svc.Errs[token]; ok {
			res.FailureCount++
			continue
		}
		svc.Multicast = append(svc.Multicast, SentPush{Token: token, Notification: notif})
		res.SuccessCount++
	}
	return res, nil
}

// Reset clears recorded deliveries.
func (svc *Service) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.Sent = nil
	svc.Multicast = nil
	svc.Errs = make(map[string]error)
}
