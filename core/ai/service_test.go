package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func TestService_Summarize(t *testing.T) {
	gen := &fakeGenerator{response: "A concise summary."}
	svc := NewService(gen)

	out, err := svc.Summarize(context.Background(), "long lecture notes")
	assert.NoError(t, err)
	assert.Equal(t, "A concise summary.", out)
	if assert.Len(t, gen.prompts, 1) {
		assert.Contains(t, gen.prompts[0], "academic summary")
		assert.Contains(t, gen.prompts[0], "long lecture notes")
	}
}

func TestService_Chat_promptIsVerbatim(t *testing.T) {
	gen := &fakeGenerator{response: "Sure!"}
	svc := NewService(gen)

	_, err := svc.Chat(context.Background(), "explain osmosis")
	assert.NoError(t, err)
	assert.Equal(t, []string{"explain osmosis"}, gen.prompts)
}

func TestService_Generate_emptyResponse(t *testing.T) {
	gen := &fakeGenerator{response: "   \n"}
	svc := NewService(gen)

	_, err := svc.Generate(context.Background(), "text", ModeSummary)
	assert.Equal(t, ErrEmptyResponse, err)
}

func TestService_Generate_backendError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewService(gen)

	_, err := svc.Generate(context.Background(), "text", ModeSummary)
	assert.Error(t, err)
	assert.NotEqual(t, ErrBadFormat, errors.Cause(err))
}

func TestService_GenerateFlashcards(t *testing.T) {
	cards := `[{"question": "What is 2+2?", "answer": "4"}]`

	tests := []struct {
		name     string
		response string
		wantErr  error
		wantLen  int
	}{
		{name: "raw json", response: cards, wantLen: 1},
		{name: "fenced json", response: "```json\n" + cards + "\n```", wantLen: 1},
		{name: "bare fences", response: "```\n" + cards + "\n```", wantLen: 1},
		{name: "chatty preamble", response: "Here you go: sure thing!", wantErr: ErrBadFormat},
		{name: "empty array", response: "[]", wantErr: ErrBadFormat},
		{name: "empty response", response: " ", wantErr: ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response}
			svc := NewService(gen)

			got, err := svc.GenerateFlashcards(context.Background(), "notes")
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			assert.NoError(t, err)
			if assert.Len(t, got, tt.wantLen) {
				assert.Equal(t, "What is 2+2?", got[0].Question)
				assert.Equal(t, "4", got[0].Answer)
			}

			// no retry on any outcome
			assert.Len(t, gen.prompts, 1)
		})
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n[1, 2]\n```"
	assert.Equal(t, "[1, 2]", stripFences(in))
	assert.Equal(t, "plain", stripFences("plain"))
	assert.False(t, strings.Contains(stripFences("``````"), "`"))
}
