package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bittyscout/bittyscout/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64                  `json:"id"`
	Title       string                 `json:"title"`
	Location    greenhouseLocation     `json:"location"`
	AbsoluteURL string                 `json:"absolute_url"`
	UpdatedAt   string                 `json:"updated_at"`
	Content     string                 `json:"content"`
	Departments []greenhouseDepartment `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseDepartment struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *GreenhouseAdapter) Platform() string { return "greenhouse" }

// FetchPostings retrieves all jobs from the Greenhouse board, with
// descriptions included (content=true), and normalizes them into
// PostingData for the record store.
func (a *GreenhouseAdapter) FetchPostings(ctx context.Context) ([]model.PostingData, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", a.boardToken, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	postings := make([]model.PostingData, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		var department string
		if len(gj.Departments) > 0 {
			department = gj.Departments[0].Name
		}

		postings = append(postings, model.PostingData{
			JobURL:          gj.AbsoluteURL,
			PlatformSource:  a.Platform(),
			PlatformJobID:   fmt.Sprintf("%d", gj.ID),
			CompanyName:     a.companyName,
			Title:           gj.Title,
			Location:        gj.Location.Name,
			Department:      department,
			DatePosted:      gj.UpdatedAt,
			FullDescription: extractText(gj.Content),
		})
	}

	return postings, nil
}
