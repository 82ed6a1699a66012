package scoring

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Client coordinates an ordered provider chain. The first provider gets a
// bounded retry loop with exponential backoff; each later provider gets a
// single attempt. Any single hosted endpoint has availability and rate-limit
// risk, so classification degrades through the chain instead of blocking.
type Client struct {
	providers  []Provider
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewClient builds a scoring client over the given providers, tried in order.
// maxRetries is the number of additional attempts on the first provider after
// its first failure; baseDelay is the first retry delay, doubled per attempt.
func NewClient(providers []Provider, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Client {
	return &Client{
		providers:  providers,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Score sends the prompt pair through the provider chain and returns the
// model's text. modelHint selects the model on the primary provider only;
// fallbacks use their own defaults. On total failure it returns
// FailureSentinel, never an error: callers route the sentinel to their
// fail-closed branch.
func (c *Client) Score(ctx context.Context, prompt, systemPrompt, modelHint string) string {
	for i, p := range c.providers {
		hint := ""
		retries := 0
		if i == 0 {
			hint = modelHint
			retries = c.maxRetries
		}

		text, err := c.attempt(ctx, p, prompt, systemPrompt, hint, retries)
		if err == nil {
			return text
		}

		c.logger.Warn("scoring provider exhausted",
			"provider", p.Name(),
			"fallbacks_left", len(c.providers)-i-1,
			"error", err,
		)

		if errors.Is(err, context.Canceled) {
			break
		}
	}

	return FailureSentinel
}

// attempt runs one provider with up to retries additional attempts on
// transient errors. Non-transient errors (bad request, missing credentials)
// return immediately so the chain can move on.
func (c *Client) attempt(ctx context.Context, p Provider, prompt, systemPrompt, modelHint string, retries int) (string, error) {
	text, err := p.Complete(ctx, prompt, systemPrompt, modelHint)
	if err == nil {
		return text, nil
	}
	if !isTransient(err) {
		return "", err
	}

	lastErr := err
	delay := c.baseDelay
	for attempt := 1; attempt <= retries; attempt++ {
		c.logger.Warn("retrying scoring call",
			"provider", p.Name(),
			"attempt", attempt,
			"max_retries", retries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2

		text, err = p.Complete(ctx, prompt, systemPrompt, modelHint)
		if err == nil {
			return text, nil
		}
		if !isTransient(err) {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}
