package dummyai

import (
	"context"

	"github.com/studyhuddle/backend/core/ai"
)

// Service is a canned ai.Generator for DEV mode and tests. Response is
// returned for every prompt; Err, if set, fails every call. Prompts records
// what was asked.
type Service struct {
	Response string
	Err      error
	Prompts  []string
}

var _ ai.Generator = (*Service)(nil)

func NewService(response string) *Service {
	return &Service{Response: response}
}

func (svc *Service) GenerateContent(_ context.Context, prompt string) (string, error) {
	svc.Prompts = append(svc.Prompts, prompt)
	if svc.Err != nil {
		return "", svc.Err
	}
	return svc.Response, nil
}
