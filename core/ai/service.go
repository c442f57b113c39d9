package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrBadFormat surfaces a model response that could not be parsed into
	// the requested structure. The call is not retried.
	ErrBadFormat = errors.New("the AI formatting was slightly off")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("AI returned an empty response")
)

type (
	// Generator is any model backend that can complete a text prompt.
	Generator interface {
		GenerateContent(ctx context.Context, prompt string) (string, error)
	}

	ServiceInterface interface {
		Summarize(ctx context.Context, text string) (string, error)
		GenerateFlashcards(ctx context.Context, text string) ([]Flashcard, error)
		Chat(ctx context.Context, message string) (string, error)
		// Generate runs the raw prompt for the given mode and relays the text.
		Generate(ctx context.Context, text, mode string) (string, error)
	}

	service struct {
		gen Generator
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(gen Generator) ServiceInterface {
	return &service{gen: gen}
}

func (svc *service) Summarize(ctx context.Context, text string) (string, error) {
	return svc.Generate(ctx, text, ModeSummary)
}

func (svc *service) Chat(ctx context.Context, message string) (string, error) {
	return svc.Generate(ctx, message, ModeChat)
}

func (svc *service) Generate(ctx context.Context, text, mode string) (string, error) {
	out, err := svc.gen.GenerateContent(ctx, buildPrompt(text, mode))
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// GenerateFlashcards asks the model for a raw JSON array of cards. Models
// routinely wrap JSON in markdown fences; those are stripped before parsing.
// A response that still fails to parse is surfaced as ErrBadFormat, not retried.
func (svc *service) GenerateFlashcards(ctx context.Context, text string) ([]Flashcard, error) {
	out, err := svc.Generate(ctx, text, ModeFlashcards)
	if err != nil {
		return nil, err
	}

	var cards []Flashcard
	if err = json.Unmarshal([]byte(stripFences(out)), &cards); err != nil {
		return nil, ErrBadFormat
	}
	if len(cards) == 0 {
		return nil, ErrBadFormat
	}
	return cards, nil
}

func buildPrompt(text, mode string) string {
	switch mode {
	case ModeFlashcards:
		return fmt.Sprintf(`Analyze this text: %q.
Return ONLY a raw JSON array of 5 study flashcards with "question" and "answer" keys.
Example: [{"question": "...", "answer": "..."}]`, text)
	case ModeChat:
		return text
	default:
		return fmt.Sprintf("Provide a concise, academic summary of this text in paragraph form: %q", text)
	}
}

// stripFences removes markdown code fences (```json ... ```) around a payload.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
