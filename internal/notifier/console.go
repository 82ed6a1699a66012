package notifier

import (
	"context"
	"log/slog"

	"github.com/bittyscout/bittyscout/internal/model"
)

// Ensure ConsoleNotifier implements model.Notifier.
var _ model.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier writes the digest to the given logger as structured messages.
type ConsoleNotifier struct {
	logger *slog.Logger
}

// NewConsoleNotifier returns a notifier that logs each posting via slog.
func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

// Deliver logs each posting with company, title, location, score, tags, and URL.
// Returns nil (stdout logging does not fail).
func (n *ConsoleNotifier) Deliver(_ context.Context, digest model.Digest) error {
	n.logger.Info("job digest", "date", digest.Date.Format("2006-01-02"), "count", len(digest.Postings))
	for _, p := range digest.Postings {
		n.logger.Info("relevant job",
			"company", p.CompanyName,
			"title", p.Title,
			"location", p.Location,
			"score", p.Score,
			"tags", p.Tags,
			"url", p.JobURL,
		)
	}
	return nil
}
