package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkr-topics/api/internal/llm"
)

func TestComplete(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part1"},{"type":"tool_use"},{"type":"text","text":"part2"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	e := New("ak", "claude-3-5-sonnet").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	out, err := e.Complete(context.Background(), llm.Messages{System: "S", User: "U"}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "part1\npart2", out)

	assert.Equal(t, "S", got.System)
	assert.Equal(t, []message{{Role: "user", Content: "U"}}, got.Messages)
	assert.Equal(t, maxTokens, got.MaxTokens)
}

func TestCompleteOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
	}))
	defer srv.Close()

	e := New("ak", "m").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	_, err := e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	}))
	defer srv.Close()

	e := New("ak", "m").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	_, err := e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelError)
	assert.Contains(t, err.Error(), "max_tokens")
}
