package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bittyscout/bittyscout/internal/model"
)

// PlatformRateLimiter enforces a minimum delay between requests to the same
// job board backend. Multiple sources on the same platform share one limiter.
type PlatformRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: platform name
	delayFor func(platform string) time.Duration
}

// NewPlatformRateLimiter creates a limiter whose per-platform delay comes
// from delayFor (typically config.RateLimitConfig.MinDelayFor).
func NewPlatformRateLimiter(delayFor func(platform string) time.Duration) *PlatformRateLimiter {
	return &PlatformRateLimiter{
		lastCall: make(map[string]time.Time),
		delayFor: delayFor,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given platform. Returns an error if the context is cancelled while waiting.
func (r *PlatformRateLimiter) Wait(ctx context.Context, platform string) error {
	minDelay := r.delayFor(platform)

	r.mu.Lock()
	last, ok := r.lastCall[platform]
	now := time.Now()

	if !ok {
		// First request for this platform — no wait needed.
		r.lastCall[platform] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= minDelay {
		r.lastCall[platform] = now
		r.mu.Unlock()
		return nil
	}

	remaining := minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", platform, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[platform] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedSource is a decorator that enforces platform-level rate
// limiting before delegating to the wrapped Source.
type RateLimitedSource struct {
	inner   model.Source
	limiter *PlatformRateLimiter
}

// NewRateLimitedSource wraps a Source with platform-level rate limiting.
// All sources targeting the same platform should share the limiter instance.
func NewRateLimitedSource(inner model.Source, limiter *PlatformRateLimiter) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
	}
}

func (s *RateLimitedSource) Platform() string { return s.inner.Platform() }

// FetchPostings waits for the rate limiter to allow a request, then
// delegates to the wrapped source.
func (s *RateLimitedSource) FetchPostings(ctx context.Context) ([]model.PostingData, error) {
	if err := s.limiter.Wait(ctx, s.inner.Platform()); err != nil {
		return nil, err
	}
	return s.inner.FetchPostings(ctx)
}
