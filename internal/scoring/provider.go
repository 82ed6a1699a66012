package scoring

import (
	"context"
	"errors"

	"github.com/bittyscout/bittyscout/internal/model"
)

// FailureSentinel is returned by Client.Score when every provider in the
// chain has failed. Callers must treat it as "could not classify", never as
// model output.
const FailureSentinel = "LLM_CALL_FAILED"

// ErrNoCredentials marks a provider that is configured without an API key.
// Non-transient: the retry loop is skipped and the chain falls through to
// the next provider immediately.
var ErrNoCredentials = errors.New("provider has no API key configured")

// Provider sends one prompt/system-prompt pair to a chat-completion endpoint
// and returns the raw text content.
type Provider interface {
	Name() string
	// Complete uses the provider's default model when model is empty.
	Complete(ctx context.Context, prompt, systemPrompt, model string) (string, error)
}

// isTransient reports whether an error is worth retrying on the same
// provider: timeouts, network failures, 429 and 5xx responses.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoCredentials) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A deadline on the request itself (not the parent ctx) is a timeout,
	// which counts as transient per the retry policy.

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Non-HTTP errors (network, DNS, timeout) are transient.
	return true
}
