package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bittyscout/bittyscout/internal/model"
	"github.com/bittyscout/bittyscout/internal/store"
)

// Gate decides whether a fetched posting should be stored at all.
// A nil Gate stores everything.
type Gate interface {
	Match(data model.PostingData) bool
}

// Upserter is the slice of the record store the runner needs.
type Upserter interface {
	Upsert(ctx context.Context, data model.PostingData) (store.UpsertResult, error)
}

// Runner drains each source into the record store. Dedup lives entirely in
// the store's upsert; the runner only validates, gates and counts.
type Runner struct {
	sources []model.Source
	store   Upserter
	gate    Gate
	logger  *slog.Logger
}

// NewRunner creates a runner over the given sources. gate may be nil.
func NewRunner(sources []model.Source, st Upserter, gate Gate, logger *slog.Logger) *Runner {
	return &Runner{
		sources: sources,
		store:   st,
		gate:    gate,
		logger:  logger,
	}
}

// SourceResult is the per-source accounting for one ingestion run.
type SourceResult struct {
	Platform string
	Seen     int // postings handed to the store
	Added    int // postings newly inserted
	Skipped  int // gated out or rejected as invalid
}

// Run fetches and upserts every source sequentially. A fetch failure or a
// rejected posting is logged and never aborts other sources or the rest of
// a source's postings. Counts are diagnostic: they degrade rather than fail.
func (r *Runner) Run(ctx context.Context) []SourceResult {
	results := make([]SourceResult, 0, len(r.sources))

	for _, src := range r.sources {
		if ctx.Err() != nil {
			return results
		}
		results = append(results, r.runSource(ctx, src))
	}

	var seen, added int
	for _, res := range results {
		seen += res.Seen
		added += res.Added
	}
	r.logger.Info("ingestion complete", "sources", len(r.sources), "seen", seen, "added", added)

	return results
}

func (r *Runner) runSource(ctx context.Context, src model.Source) SourceResult {
	res := SourceResult{Platform: src.Platform()}

	postings, err := src.FetchPostings(ctx)
	if err != nil {
		r.logger.Error("source fetch failed", "platform", src.Platform(), "error", err)
		return res
	}

	for _, data := range postings {
		if r.gate != nil && !r.gate.Match(data) {
			res.Skipped++
			continue
		}

		result, err := r.store.Upsert(ctx, data)
		if err != nil {
			// Invalid postings are expected noise from sparse boards; anything
			// else is a store problem worth a louder log. Neither stops the run.
			if errors.Is(err, model.ErrInvalidPosting) {
				r.logger.Warn("rejected invalid posting", "platform", src.Platform(), "url", data.JobURL)
			} else {
				r.logger.Error("upsert failed", "platform", src.Platform(), "url", data.JobURL, "error", err)
			}
			res.Skipped++
			continue
		}

		res.Seen++
		if result == store.Inserted {
			res.Added++
		}
	}

	r.logger.Info("source ingested",
		"platform", src.Platform(),
		"seen", res.Seen,
		"added", res.Added,
		"skipped", res.Skipped,
	)
	return res
}

// String renders one result for run summaries.
func (s SourceResult) String() string {
	return fmt.Sprintf("%s: seen=%d added=%d skipped=%d", s.Platform, s.Seen, s.Added, s.Skipped)
}
