package notifier

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/bittyscout/bittyscout/internal/model"
)

//go:embed templates/digest.html
var digestTemplate string

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Ensure EmailNotifier implements model.Notifier.
var _ model.Notifier = (*EmailNotifier)(nil)

// EmailNotifier sends the digest as a transactional HTML email through the
// Brevo SMTP API.
type EmailNotifier struct {
	client         *resty.Client
	endpoint       string
	apiKey         string
	senderEmail    string
	senderName     string
	recipientEmail string
	tmpl           *template.Template
	logger         *slog.Logger
}

// NewEmailNotifier returns a notifier that emails digests via Brevo. The
// httpClient must carry a timeout so a stalled endpoint cannot block the
// digest drain. senderName falls back to "BittyScout" when empty.
func NewEmailNotifier(apiKey, senderEmail, senderName, recipientEmail string, httpClient *http.Client, logger *slog.Logger) (*EmailNotifier, error) {
	if senderName == "" {
		senderName = "BittyScout"
	}
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &EmailNotifier{
		client:         resty.NewWithClient(httpClient),
		endpoint:       brevoEndpoint,
		apiKey:         apiKey,
		senderEmail:    senderEmail,
		senderName:     senderName,
		recipientEmail: recipientEmail,
		tmpl:           tmpl,
		logger:         logger,
	}, nil
}

// SetEndpoint overrides the Brevo API URL. Used in tests.
func (n *EmailNotifier) SetEndpoint(url string) { n.endpoint = url }

type brevoParty struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
}

// Deliver renders the HTML digest and posts it to the Brevo API.
// A non-2xx response returns an error so the postings stay unnotified.
func (n *EmailNotifier) Deliver(ctx context.Context, digest model.Digest) error {
	if len(digest.Postings) == 0 {
		return nil
	}
	if n.apiKey == "" || n.senderEmail == "" || n.recipientEmail == "" {
		return fmt.Errorf("email credentials not fully configured")
	}

	html, err := n.renderDigest(digest)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("🐾 Job Digest - %d New Roles (%s)",
		len(digest.Postings), digest.Date.Format("2006-01-02"))

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetHeader("api-key", n.apiKey).
		SetHeader("content-type", "application/json").
		SetBody(brevoEmail{
			Sender:      brevoParty{Email: n.senderEmail, Name: n.senderName},
			To:          []brevoParty{{Email: n.recipientEmail}},
			Subject:     subject,
			HTMLContent: html,
		}).
		Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("send email via brevo: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode(), resp.String())
	}

	n.logger.Info("email digest sent", "recipient", n.recipientEmail, "postings", len(digest.Postings))
	return nil
}

func (n *EmailNotifier) renderDigest(digest model.Digest) (string, error) {
	data := struct {
		Date     string
		Postings []model.JobPosting
	}{
		Date:     digest.Date.Format("January 2, 2006"),
		Postings: digest.Postings,
	}
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render digest template: %w", err)
	}
	return buf.String(), nil
}
