// Package oracle wraps the external completion service behind a small
// text-in/text-out client with bounded retry.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

type Config struct {
	BaseURL         string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey          string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model           string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxOutputTokens int           `envconfig:"MAX_OUTPUT_TOKENS" split_words:"true" default:"600"`
	Temperature     float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout         time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" split_words:"true" default:"2"`
	RetryBackoff    time.Duration `envconfig:"RETRY_BACKOFF" split_words:"true" default:"500ms"`
}

// TransportError marks a terminal oracle failure. Retryable is false once
// the retry budget is spent or the failure is permanent; callers surface it
// but never retry on their own.
type TransportError struct {
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Client struct {
	sdk         openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
	maxRetries  int
	backoff     time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("oracle api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("oracle model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retry is handled here, not by the SDK, so the bound is explicit.
		option.WithMaxRetries(0),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Client{
		sdk:         openaisdk.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		backoff:     backoff,
		sleep:       sleepCtx,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Complete sends the prompt and returns the raw completion text. Transient
// failures are retried up to the configured bound with exponential backoff;
// after exhaustion the error wraps *TransportError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	wait := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return "", &TransportError{Retryable: false, Err: err}
			}
			wait *= 2
		}

		text, err := c.complete(ctx, system, user)
		if err == nil {
			return text, nil
		}
		lastErr = err

		retryable := isRetryable(err)
		log.Warn().Err(err).Int("attempt", attempt+1).Bool("retryable", retryable).
			Msg("oracle completion failed")
		if !retryable || ctx.Err() != nil {
			return "", &TransportError{Retryable: false, Err: err}
		}
	}

	// The retry budget is spent; the turn must not be retried again.
	return "", &TransportError{Retryable: false, Err: lastErr}
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		MaxTokens:   openaisdk.Int(c.maxTokens),
		Temperature: openaisdk.Float(c.temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func isRetryable(err error) bool {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Connection-level failures come back as url.Error from the http client.
	// Anything else, e.g. a malformed response body, will not heal on retry.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
