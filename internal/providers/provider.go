// Package providers wraps the generative model endpoint behind a small
// client interface so the extraction pipeline never touches HTTP directly.
package providers

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyResponse indicates the model answered with no usable text.
// Distinct from transport failure so callers can log them differently.
var ErrEmptyResponse = errors.New("model returned empty response")

// ErrModelTransport indicates the HTTP call itself failed (network error,
// timeout, or a non-2xx status after retries were exhausted).
var ErrModelTransport = errors.New("model transport failure")

// Options are per-request generation settings.
type Options struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Client is a generative model endpoint.
type Client interface {
	// Generate sends a prompt and returns the raw response text.
	// Returns an error wrapping ErrModelTransport or ErrEmptyResponse.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Model returns the model identifier recorded with extracted items.
	Model() string

	// Name identifies the provider for logging.
	Name() string
}

// Config holds provider connection settings.
type Config struct {
	Model          string
	BaseURL        string
	APIKey         string
	RateLimit      int
	MaxRetries     int
	RequestTimeout time.Duration
}
