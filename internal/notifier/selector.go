package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bittyscout/bittyscout/internal/model"
)

// DigestStore is the slice of the record store the selector needs.
type DigestStore interface {
	FetchRelevantUnnotified(ctx context.Context) ([]model.JobPosting, error)
	MarkNotified(ctx context.Context, jobURLs []string) error
}

// Selector drains relevant unnotified postings into a digest, hands it to
// the notifier, and marks only delivered postings as notified. A delivery
// failure leaves everything unnotified so the next run retries.
type Selector struct {
	store    DigestStore
	notifier model.Notifier
	logger   *slog.Logger
}

// NewSelector wires a record store to a notification channel.
func NewSelector(store DigestStore, notifier model.Notifier, logger *slog.Logger) *Selector {
	return &Selector{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run builds and delivers the digest. Returns the number of postings
// delivered and marked.
func (s *Selector) Run(ctx context.Context) (int, error) {
	postings, err := s.store.FetchRelevantUnnotified(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch unnotified postings: %w", err)
	}
	if len(postings) == 0 {
		s.logger.Info("no new relevant postings to notify")
		return 0, nil
	}

	digest := model.Digest{Date: time.Now(), Postings: postings}
	if err := s.notifier.Deliver(ctx, digest); err != nil {
		return 0, fmt.Errorf("deliver digest: %w", err)
	}

	urls := make([]string, len(postings))
	for i, p := range postings {
		urls[i] = p.JobURL
	}
	if err := s.store.MarkNotified(ctx, urls); err != nil {
		// Delivered but not marked: the next run may re-send these.
		return len(postings), fmt.Errorf("mark notified: %w", err)
	}

	s.logger.Info("digest delivered", "postings", len(postings))
	return len(postings), nil
}
