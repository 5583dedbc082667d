package openai

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

func TestCompleteSendsBothMessages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"topics\":[]}"}}]}`))
	}))
	defer srv.Close()

	e := New("sk-test", "gpt-4o-mini").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	out, err := e.Complete(context.Background(), llm.Messages{System: "sys", User: "usr"}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, `{"topics":[]}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "usr"}, got.Messages[1])
}

func TestCompleteClassifiesErrors(t *testing.T) {
	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"x"}`))
	}))
	defer srv.Close()

	e := NewOpenRouter("key", "deepseek/deepseek-chat").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	assert.Equal(t, llm.ProviderOpenRouter, e.Name())

	_, err := e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)

	status = http.StatusUnauthorized
	_, err = e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelError)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	e := New("k", "m").WithBaseURL(srv.URL).WithHTTPClient(srv.Client())
	_, err := e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelError)
}

func TestCompleteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	e := New("k", "m").WithBaseURL(url)
	_, err := e.Complete(context.Background(), llm.Messages{}, 0.7)
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
}
