package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"vkr-topics/api/internal/llm"
)

func TestFirstText(t *testing.T) {
	assert.Equal(t, "", firstText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"topics":`), genai.Text(`[]}`)}}},
		},
	}
	assert.Equal(t, `{"topics":[]}`, firstText(resp))
}

func TestCompleteWithoutKey(t *testing.T) {
	e := New(" ", "gemini-2.5-flash")
	_, err := e.Complete(context.Background(), llm.Messages{User: "x"}, 0.7)
	assert.ErrorIs(t, err, llm.ErrInvalidConfiguration)
}

type httpCodeErr struct{ code int }

func (e httpCodeErr) Error() string { return fmt.Sprintf("http %d", e.code) }
func (e httpCodeErr) HTTPCode() int { return e.code }

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(context.DeadlineExceeded), llm.ErrModelUnavailable)
	assert.ErrorIs(t, classify(httpCodeErr{code: 503}), llm.ErrModelUnavailable)
	assert.ErrorIs(t, classify(httpCodeErr{code: 400}), llm.ErrModelError)
	assert.ErrorIs(t, classify(errors.New("blocked")), llm.ErrModelError)
}

func TestWithTimeout(t *testing.T) {
	e := New("k", "gemini-2.5-flash").WithTimeout(30 * time.Second)
	assert.Equal(t, 30*time.Second, e.Timeout)
	assert.Equal(t, 30*time.Second, e.WithTimeout(0).Timeout)
}
