package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sampling parameters used for every completion regardless of provider.
const (
	Temperature = 0.7
	MaxTokens   = 500
)

var (
	ErrEmptyReply    = errors.New("provider returned an empty reply")
	ErrNotConfigured = errors.New("no completion provider configured")
)

// Completer turns a system prompt plus one visitor message into a reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// ProviderError wraps any failure of the upstream completion provider:
// transport errors, rate limiting and malformed or empty responses.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Unavailable is used when no provider credentials are configured. Every call fails.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string, string) (string, error) {
	return "", &ProviderError{Provider: "none", Err: ErrNotConfigured}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
