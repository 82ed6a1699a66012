package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bittyscout/bittyscout/internal/model"
)

func TestGreenhouseFetchPostings(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"updated_at": "2026-02-13T10:00:00Z",
				"content": "&lt;p&gt;Build &lt;b&gt;distributed&lt;/b&gt; systems&lt;/p&gt;",
				"departments": [{"name": "Engineering"}]
			},
			{
				"id": 67890,
				"title": "Backend Engineer",
				"location": {"name": "Remote, US"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z",
				"content": "",
				"departments": []
			}
		]
	}`
	srv := jsonServer(t, payload)

	a := NewGreenhouseAdapter("acme", "Acme Corp", redirectingClient(srv))
	postings, err := a.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.JobURL != "https://boards.greenhouse.io/acme/jobs/12345" {
		t.Errorf("JobURL = %q", p.JobURL)
	}
	if p.PlatformSource != "greenhouse" || p.PlatformJobID != "12345" {
		t.Errorf("platform identity = %q/%q", p.PlatformSource, p.PlatformJobID)
	}
	if p.CompanyName != "Acme Corp" || p.Title != "Software Engineer" {
		t.Errorf("company/title = %q/%q", p.CompanyName, p.Title)
	}
	if p.Department != "Engineering" {
		t.Errorf("Department = %q", p.Department)
	}
	if p.FullDescription != "Build distributed systems" {
		t.Errorf("description not stripped to text: %q", p.FullDescription)
	}
}

func TestGreenhouseHTTPError(t *testing.T) {
	srv := statusServer(t, 429, "30")

	a := NewGreenhouseAdapter("acme", "Acme", redirectingClient(srv))
	_, err := a.FetchPostings(context.Background())

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != 429 {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v", httpErr.RetryAfter)
	}
}
