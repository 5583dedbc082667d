package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vkr-topics/api/internal/llm"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	maxTokens      = 4096
)

// Engine calls the Anthropic Messages API.
type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:  key,
		Model:   model,
		BaseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 180 * time.Second},
	}
}

func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string     { return llm.ProviderAnthropic }
func (e *Engine) GetModel() string { return e.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (e *Engine) Complete(ctx context.Context, msgs llm.Messages, temperature float32) (string, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:       e.Model,
		System:      msgs.System,
		Messages:    []message{{Role: "user", Content: msgs.User}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: encode request: %w", llm.ErrModelError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %w", llm.ErrModelError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", llm.TransportError(e.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.TransportError(e.Name(), err)
	}
	// 529 overloaded попадает в 5xx
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", llm.StatusError(e.Name(), resp.StatusCode, raw)
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: anthropic: bad envelope: %w", llm.ErrModelError, err)
	}
	var b strings.Builder
	for _, c := range out.Content {
		if c.Type != "text" || c.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: anthropic: empty completion (stop_reason=%s)", llm.ErrModelError, out.StopReason)
	}
	return b.String(), nil
}
