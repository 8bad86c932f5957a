package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *RateLimiter
	retries int
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIClient creates a client from resolved provider config.
// The API key must already have env-var references expanded.
func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oaCfg),
		model:   cfg.Model,
		limiter: NewRateLimiter(cfg.RateLimit),
		retries: retries,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *OpenAIClient) Name() string  { return "openai" }
func (c *OpenAIClient) Model() string { return c.model }

// Limiter exposes the rate limiter for status reporting.
func (c *OpenAIClient) Limiter() *RateLimiter { return c.limiter }

// Generate sends the prompt and returns the raw completion text.
// Transport failures are retried with exponential backoff; an empty
// completion is returned as ErrEmptyResponse without retrying.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelTransport, err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp openai.ChatCompletionResponse
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			var callErr error
			resp, callErr = c.client.CreateChatCompletion(callCtx, req)
			return callErr
		},
		retry.Attempts(uint(c.retries)),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxJitter(250*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(c.shouldRetry),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("model call failed, retrying",
				"attempt", n+1,
				"max_attempts", c.retries,
				"error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelTransport, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// shouldRetry returns true for transient failures: rate limits, server
// errors, and network-level problems. Client errors (4xx other than 429)
// will fail the same way again and are not retried.
func (c *OpenAIClient) shouldRetry(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			c.limiter.Drain()
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}
	// Respect cancellation from the orchestrator.
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
