// Package llm is a minimal client for OpenAI-compatible chat completion APIs
// (Groq, OpenAI, local gateways).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/config"
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	MinInterval time.Duration
	Temperature float64
	MaxTokens   int

	HTTPClient *http.Client
}

// OptionsFromConfig builds client options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	l := cfg.CareerPath.LLM
	return Options{
		BaseURL:     l.BaseURL,
		Model:       l.Model,
		APIKey:      cfg.APIKey(),
		Timeout:     l.TimeoutDuration(),
		MaxRetries:  l.MaxRetries,
		Backoff:     l.BackoffDuration(),
		MinInterval: l.MinIntervalDuration(),
		Temperature: l.Temperature,
		MaxTokens:   l.MaxTokens,
	}
}

// Client sends chat completion requests, throttled and retried.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		opts:    opts,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		log:     log.Named("llm"),
		sleep:   sleepCtx,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// errRetryable marks an attempt failure worth repeating.
var errRetryable = errors.New("retryable")

// Complete sends one system and one user message and returns the assistant
// reply. Rate limits, server errors, and network failures are retried with
// doubling backoff; every failure is reported as an external service error.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.opts.APIKey == "" {
		return "", apperr.External(nil, "LLM API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", apperr.External(err, "encode completion request")
	}

	start := time.Now()
	backoff := c.opts.Backoff
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := c.sleep(ctx, backoff); err != nil {
				return "", apperr.External(err, "completion cancelled")
			}
			backoff *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", apperr.External(err, "completion cancelled")
		}

		out, err := c.do(ctx, body)
		if err == nil {
			c.log.Debug("completion done",
				zap.String("model", c.opts.Model),
				zap.Int("attempts", attempt+1),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("response_len", len(out)))
			return out, nil
		}
		if !errors.Is(err, errRetryable) || ctx.Err() != nil {
			return "", apperr.External(err, "completion failed")
		}
		lastErr = err
	}
	return "", apperr.External(lastErr, "completion failed after %d attempts", c.opts.MaxRetries+1)
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	url := strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", errRetryable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: rate limited (429)", errRetryable)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: server error %d: %s", errRetryable, resp.StatusCode, truncate(data))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data))
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func truncate(b []byte) string {
	const limit = 300
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
