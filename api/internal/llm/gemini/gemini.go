package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"vkr-topics/api/internal/llm"
)

type Engine struct {
	APIKey string
	Model  string

	// Timeout ограничивает один вызов Complete; 0 — без ограничения.
	Timeout time.Duration

	opts []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

func (e *Engine) WithTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.Timeout = d
	}
	return e
}

func (e *Engine) Name() string     { return llm.ProviderGemini }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Complete(ctx context.Context, msgs llm.Messages, temperature float32) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is empty", llm.ErrInvalidConfiguration)
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: gemini client: %w", llm.ErrModelUnavailable, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.SetTemperature(temperature)
	if strings.TrimSpace(msgs.System) != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(msgs.System)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(msgs.User))
	if err != nil {
		return "", classify(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("%w: gemini: empty response", llm.ErrModelError)
	}
	return txt, nil
}

// classify maps SDK errors onto the llm taxonomy.
func classify(err error) error {
	if llm.IsTransient(err) {
		return llm.TransportError(llm.ProviderGemini, err)
	}
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) {
		code := coded.HTTPCode()
		if code == http.StatusTooManyRequests || code >= 500 {
			return fmt.Errorf("%w: gemini %d: %w", llm.ErrModelUnavailable, code, err)
		}
	}
	return fmt.Errorf("%w: gemini: %w", llm.ErrModelError, err)
}

// firstText собирает текстовые части первого непустого кандидата.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
