package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrInvalidConfiguration = errors.New("invalid llm configuration")
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrModelError           = errors.New("model error")
)

// StatusError classifies a non-2xx provider response.
// 408, 429 and 5xx are transient (unavailable), everything else is a model error.
func StatusError(provider string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	const maxBody = 1024
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	kind := ErrModelError
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500 {
		kind = ErrModelUnavailable
	}
	return fmt.Errorf("%w: %s %d: %s", kind, provider, code, msg)
}

// TransportError wraps a failed round trip as ErrModelUnavailable.
func TransportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrModelUnavailable, provider, err)
}

// IsTransient reports whether err looks like a network or deadline failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
