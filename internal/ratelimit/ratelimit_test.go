package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/bittyscout/bittyscout/internal/model"
)

func fixedDelay(d time.Duration) func(string) time.Duration {
	return func(string) time.Duration { return d }
}

func TestWait_SamePlatform_EnforcesMinDelay(t *testing.T) {
	limiter := NewPlatformRateLimiter(fixedDelay(100 * time.Millisecond))
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentPlatforms_NoCrossBlocking(t *testing.T) {
	limiter := NewPlatformRateLimiter(fixedDelay(200 * time.Millisecond))
	ctx := context.Background()

	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// Immediately call for lever — should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "lever"); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_PerPlatformDelay(t *testing.T) {
	delays := map[string]time.Duration{
		"adzuna":    150 * time.Millisecond,
		"recruitee": 0,
	}
	limiter := NewPlatformRateLimiter(func(platform string) time.Duration {
		return delays[platform]
	})
	ctx := context.Background()

	if err := limiter.Wait(ctx, "recruitee"); err != nil {
		t.Fatalf("first recruitee wait: %v", err)
	}
	start := time.Now()
	if err := limiter.Wait(ctx, "recruitee"); err != nil {
		t.Fatalf("second recruitee wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected zero-delay platform to be near-instant, got %v", elapsed)
	}

	if err := limiter.Wait(ctx, "adzuna"); err != nil {
		t.Fatalf("first adzuna wait: %v", err)
	}
	start = time.Now()
	if err := limiter.Wait(ctx, "adzuna"); err != nil {
		t.Fatalf("second adzuna wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 120*time.Millisecond {
		t.Errorf("expected >= 120ms wait for adzuna, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewPlatformRateLimiter(fixedDelay(5 * time.Second)) // long delay
	ctx := context.Background()

	// First call to seed the last-call time.
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Cancel the context before the wait completes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	if err := limiter.Wait(ctx, "greenhouse"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// --- Mock for RateLimitedSource test ---

type recordingSource struct {
	called bool
}

func (s *recordingSource) Platform() string { return "greenhouse" }

func (s *recordingSource) FetchPostings(_ context.Context) ([]model.PostingData, error) {
	s.called = true
	return nil, nil
}

func TestRateLimitedSource_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewPlatformRateLimiter(fixedDelay(100 * time.Millisecond))
	inner := &recordingSource{}
	source := NewRateLimitedSource(inner, limiter)
	ctx := context.Background()

	if source.Platform() != "greenhouse" {
		t.Fatalf("expected platform passthrough, got %q", source.Platform())
	}

	// First call — seeds limiter, then delegates.
	if _, err := source.FetchPostings(ctx); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner source was not called on first fetch")
	}

	// Reset.
	inner.called = false

	// Second call — should wait for the rate limiter.
	start := time.Now()
	if _, err := source.FetchPostings(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner source was not called on second fetch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}
