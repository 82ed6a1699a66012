package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bittyscout/bittyscout/internal/model"
)

// Discord allows at most 10 embeds per webhook message, so larger digests
// are split across multiple posts.
const maxEmbedsPerMessage = 10

// digestColor is the accent color used on every embed.
const digestColor = 0x00AEEF

// Ensure DiscordNotifier implements model.Notifier.
var _ model.Notifier = (*DiscordNotifier)(nil)

// DiscordNotifier posts the digest to a Discord channel via webhook,
// one embed per posting.
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDiscordNotifier returns a notifier that posts digests to a Discord webhook.
func NewDiscordNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type discordPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Deliver posts the digest to the webhook, chunked to the embed limit.
// Any chunk failure aborts and returns an error so the postings stay
// unnotified and are retried on the next run.
func (n *DiscordNotifier) Deliver(ctx context.Context, digest model.Digest) error {
	if len(digest.Postings) == 0 {
		return nil
	}

	total := len(digest.Postings)
	for start := 0; start < total; start += maxEmbedsPerMessage {
		end := start + maxEmbedsPerMessage
		if end > total {
			end = total
		}

		payload := discordPayload{
			Username: "BittyBot",
			Embeds:   buildEmbeds(digest.Postings[start:end], start),
		}
		if start == 0 {
			plural := "s"
			if total == 1 {
				plural = ""
			}
			payload.Content = fmt.Sprintf("📬 **Job Digest — %d New Job%s**", total, plural)
		}

		if err := n.post(ctx, payload); err != nil {
			return fmt.Errorf("discord digest chunk %d: %w", start/maxEmbedsPerMessage+1, err)
		}
	}

	n.logger.Info("discord digest sent", "postings", total)
	return nil
}

func (n *DiscordNotifier) post(ctx context.Context, payload discordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to discord: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned %d", resp.StatusCode)
	}
	return nil
}

func buildEmbeds(postings []model.JobPosting, offset int) []discordEmbed {
	embeds := make([]discordEmbed, 0, len(postings))
	for i, p := range postings {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("%d. %s at %s", offset+i+1, orNA(p.Title), orNA(p.CompanyName)),
			Description: fmt.Sprintf("📍 %s\n[🔗 Apply here](%s)", orNA(p.Location), p.JobURL),
			Color:       digestColor,
		})
	}
	return embeds
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
