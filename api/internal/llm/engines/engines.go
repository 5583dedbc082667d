package engines

import (
	"fmt"
	"net/http"
	"time"

	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/llm/anthropic"
	"vkr-topics/api/internal/llm/gemini"
	"vkr-topics/api/internal/llm/openai"
)

// Keys — ключи провайдеров и общие настройки транспорта.
type Keys struct {
	OpenAI     string
	Anthropic  string
	OpenRouter string
	Gemini     string

	// Timeout caps a single completion call; zero keeps the engine default.
	Timeout time.Duration
}

// New builds the engine named by selector "<provider>:<model-id>".
// Unknown providers and missing keys fail with llm.ErrInvalidConfiguration.
func New(selector string, keys Keys) (llm.Engine, error) {
	provider, model, err := llm.ParseSelector(selector)
	if err != nil {
		return nil, err
	}

	var httpc *http.Client
	if keys.Timeout > 0 {
		httpc = &http.Client{Timeout: keys.Timeout}
	}

	switch provider {
	case llm.ProviderOpenAI:
		if err := requireKey(keys.OpenAI, "OPENAI_API_KEY"); err != nil {
			return nil, err
		}
		return openai.New(keys.OpenAI, model).WithHTTPClient(httpc), nil
	case llm.ProviderOpenRouter:
		if err := requireKey(keys.OpenRouter, "OPENROUTER_API_KEY"); err != nil {
			return nil, err
		}
		return openai.NewOpenRouter(keys.OpenRouter, model).WithHTTPClient(httpc), nil
	case llm.ProviderAnthropic:
		if err := requireKey(keys.Anthropic, "ANTHROPIC_API_KEY"); err != nil {
			return nil, err
		}
		return anthropic.New(keys.Anthropic, model).WithHTTPClient(httpc), nil
	case llm.ProviderGemini:
		if err := requireKey(keys.Gemini, "GEMINI_API_KEY"); err != nil {
			return nil, err
		}
		return gemini.New(keys.Gemini, model).WithTimeout(keys.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q in %q; use openai | anthropic | openrouter | gemini",
			llm.ErrInvalidConfiguration, provider, selector)
	}
}

func requireKey(v, env string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is empty", llm.ErrInvalidConfiguration, env)
	}
	return nil
}
