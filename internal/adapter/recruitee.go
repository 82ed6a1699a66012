package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/bittyscout/bittyscout/internal/model"
)

// RecruiteeAdapter fetches postings from a company's Recruitee careers API.
type RecruiteeAdapter struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewRecruiteeAdapter creates a new adapter for a Recruitee company page.
func NewRecruiteeAdapter(companySlug string, companyName string, client *http.Client) *RecruiteeAdapter {
	return &RecruiteeAdapter{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

func (a *RecruiteeAdapter) Platform() string { return "recruitee" }

// FetchPostings retrieves all offers for the company and normalizes them
// into PostingData. Offers without a title or URL are skipped.
func (a *RecruiteeAdapter) FetchPostings(ctx context.Context) ([]model.PostingData, error) {
	url := fmt.Sprintf("https://%s.recruitee.com/api/offers/", a.companySlug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("recruitee fetch for %s: %w", a.companySlug, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recruitee fetch for %s: %w", a.companySlug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("recruitee fetch for %s: unexpected status %d", a.companySlug, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("recruitee fetch for %s: %w", a.companySlug, err)
	}

	var postings []model.PostingData
	for _, offer := range gjson.GetBytes(body, "offers").Array() {
		title := offer.Get("title").String()
		jobURL := offer.Get("careers_url").String()
		if jobURL == "" {
			jobURL = offer.Get("url").String()
		}
		if title == "" || jobURL == "" {
			continue
		}

		companyName := offer.Get("company_name").String()
		if companyName == "" {
			companyName = a.companyName
		}

		postings = append(postings, model.PostingData{
			JobURL:          jobURL,
			PlatformSource:  a.Platform(),
			PlatformJobID:   offer.Get("id").String(),
			CompanyName:     companyName,
			Title:           title,
			Location:        offer.Get("city").String(),
			Department:      offer.Get("department").String(),
			DatePosted:      offer.Get("created_at").String(),
			FullDescription: extractText(offer.Get("description").String()),
		})
	}

	return postings, nil
}
