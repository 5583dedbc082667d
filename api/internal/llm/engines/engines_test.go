package engines

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/llm/gemini"
)

func TestNewPicksEngineByPrefix(t *testing.T) {
	keys := Keys{OpenAI: "o", Anthropic: "a", OpenRouter: "r", Gemini: "g"}

	cases := []struct {
		selector string
		name     string
		model    string
	}{
		{"openai:gpt-4o-mini", llm.ProviderOpenAI, "gpt-4o-mini"},
		{"anthropic:claude-3-5-sonnet-latest", llm.ProviderAnthropic, "claude-3-5-sonnet-latest"},
		{"openrouter:deepseek/deepseek-chat-v3.1:free", llm.ProviderOpenRouter, "deepseek/deepseek-chat-v3.1:free"},
		{"gemini:gemini-2.5-flash", llm.ProviderGemini, "gemini-2.5-flash"},
	}
	for _, tc := range cases {
		e, err := New(tc.selector, keys)
		require.NoError(t, err, tc.selector)
		assert.Equal(t, tc.name, e.Name())
		assert.Equal(t, tc.model, e.GetModel())
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	_, err := New("ollama:llama3", Keys{})
	assert.ErrorIs(t, err, llm.ErrInvalidConfiguration)

	_, err = New("gpt-4o", Keys{OpenAI: "o"})
	assert.ErrorIs(t, err, llm.ErrInvalidConfiguration)

	_, err = New("anthropic:claude", Keys{OpenAI: "o"})
	assert.ErrorIs(t, err, llm.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewPassesTimeoutToGemini(t *testing.T) {
	e, err := New("gemini:gemini-2.5-flash", Keys{Gemini: "g", Timeout: 45 * time.Second})
	require.NoError(t, err)
	g, ok := e.(*gemini.Engine)
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, g.Timeout)

	e, err = New("gemini:gemini-2.5-flash", Keys{Gemini: "g"})
	require.NoError(t, err)
	assert.Zero(t, e.(*gemini.Engine).Timeout)
}
