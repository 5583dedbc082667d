package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"vkr-topics/api/internal/llm"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Engine talks to an OpenAI-compatible /chat/completions endpoint.
// The same engine serves OpenRouter with a different base URL and name.
type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	name    string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:  key,
		Model:   model,
		BaseURL: DefaultBaseURL,
		name:    llm.ProviderOpenAI,
		httpc:   newHTTPClient(),
	}
}

// NewOpenRouter returns an engine pointed at the OpenRouter gateway.
func NewOpenRouter(key, model string) *Engine {
	e := New(key, model)
	e.BaseURL = OpenRouterBaseURL
	e.name = llm.ProviderOpenRouter
	return e
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &http.Client{Timeout: 180 * time.Second, Transport: tr}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tests).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

// WithBaseURL overrides the API root ("…/v1").
func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string     { return e.name }
func (e *Engine) GetModel() string { return e.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *Engine) Complete(ctx context.Context, msgs llm.Messages, temperature float32) (string, error) {
	body := chatRequest{
		Model: e.Model,
		Messages: []chatMessage{
			{Role: "system", Content: msgs.System},
			{Role: "user", Content: msgs.User},
		},
		Temperature: temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: encode request: %w", llm.ErrModelError, e.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", llm.ErrModelError, e.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	if e.name == llm.ProviderOpenRouter {
		req.Header.Set("X-Title", "VKR Topic Generator")
	}

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", llm.TransportError(e.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.TransportError(e.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", llm.StatusError(e.name, resp.StatusCode, raw)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %s: bad envelope: %w", llm.ErrModelError, e.name, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: %s: empty completion", llm.ErrModelError, e.name)
	}
	return out.Choices[0].Message.Content, nil
}
