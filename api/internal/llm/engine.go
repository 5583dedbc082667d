package llm

import (
	"context"
	"fmt"
	"strings"
)

// DefaultTemperature is the sampling temperature used for topic generation.
const DefaultTemperature float32 = 0.7

// Messages — пара сообщений, отправляемых модели.
type Messages struct {
	System string
	User   string
}

// Engine is a text-completion backend. Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, msgs Messages, temperature float32) (string, error)
}

// Provider prefixes accepted in a model selector.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// ParseSelector splits "<provider>:<model-id>" on the first colon.
// The model id may itself contain colons ("openrouter:deepseek/deepseek-chat-v3.1:free").
func ParseSelector(s string) (provider, model string, err error) {
	s = strings.TrimSpace(s)
	provider, model, ok := strings.Cut(s, ":")
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if !ok || provider == "" || model == "" {
		return "", "", fmt.Errorf("%w: model selector %q must look like <provider>:<model>", ErrInvalidConfiguration, s)
	}
	return provider, model, nil
}
