package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/bittyscout/bittyscout/internal/model"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

// AdzunaAdapter fetches postings from the Adzuna search API for one query.
// Credentials come from configuration; a missing pair surfaces as an error
// so the ingest runner logs and skips this source.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	country string // two-letter country code, e.g. "gb"
	query   string
	client  *http.Client
}

// NewAdzunaAdapter creates an adapter for one Adzuna search query.
func NewAdzunaAdapter(appID, appKey, country, query string, client *http.Client) *AdzunaAdapter {
	if country == "" {
		country = "gb"
	}
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		query:   query,
		client:  client,
	}
}

func (a *AdzunaAdapter) Platform() string { return "adzuna" }

// FetchPostings runs the search (first page, 50 results) and normalizes the
// results into PostingData. Adzuna only provides one description variant,
// used for both the summary and the full text.
func (a *AdzunaAdapter) FetchPostings(ctx context.Context) ([]model.PostingData, error) {
	if a.appID == "" || a.appKey == "" {
		return nil, fmt.Errorf("adzuna fetch %q: app id/key not configured", a.query)
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", a.query)
	params.Set("results_per_page", "50")
	params.Set("content-type", "application/json")

	endpoint := fmt.Sprintf("%s/%s/search/1?%s", adzunaBaseURL, a.country, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", a.query, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", a.query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna fetch %q: unexpected status %d", a.query, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", a.query, err)
	}

	var postings []model.PostingData
	for _, result := range gjson.GetBytes(body, "results").Array() {
		description := result.Get("description").String()

		postings = append(postings, model.PostingData{
			JobURL:          result.Get("redirect_url").String(),
			PlatformSource:  a.Platform(),
			PlatformJobID:   result.Get("id").String(),
			CompanyName:     result.Get("company.display_name").String(),
			Title:           result.Get("title").String(),
			Location:        result.Get("location.display_name").String(),
			Department:      result.Get("category.label").String(),
			DatePosted:      result.Get("created").String(),
			APIDescription:  description,
			FullDescription: description,
		})
	}

	return postings, nil
}
