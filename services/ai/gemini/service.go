package geminiai

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/ai"
)

type service struct {
	client *genai.Client
	model  string
}

var _ ai.Generator = (*service)(nil)

// NewService builds a Gemini-backed ai.Generator.
func NewService(ctx context.Context, conf *core.Config) (ai.Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.AI.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "initializing gemini client")
	}
	return &service{client: client, model: conf.AI.Model}, nil
}

func (svc *service) GenerateContent(ctx context.Context, prompt string) (string, error) {
	model := svc.client.GenerativeModel(svc.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "calling model")
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String(), nil
}
