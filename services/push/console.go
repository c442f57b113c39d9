package pushsvc

import (
	"context"
	"log"

	"github.com/studyhuddle/backend/core"
)

// consoleService prints notifications instead of delivering them; for DEV mode.
type consoleService struct{}

var _ core.PushService = (*consoleService)(nil)

func NewConsoleService() core.PushService {
	return &consoleService{}
}

func (svc consoleService) Send(_ context.Context, token string, notif core.Notification) error {
	log.Printf("push to %s: %s - %s", token, notif.Title, notif.Body)
	return nil
}

func (svc consoleService) SendMulticast(_ context.Context, tokens []string, notif core.Notification) (core.BatchResult, error) {
	for _, token := range tokens {
		log.Printf("push to %s: %s - %s", token, notif.Title, notif.Body)
	}
	return core.BatchResult{SuccessCount: len(tokens)}, nil
}
