package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anmolkh/internradar/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverPosting represents a single posting in the Lever API response.
type leverPosting struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Categories leverCategories `json:"categories"`
	Country    string          `json:"country"`
	CreatedAt  int64           `json:"createdAt"`
	HostedURL  string          `json:"hostedUrl"`
	ApplyURL   string          `json:"applyUrl"`
}

// Lever fetches postings from the Lever public postings API.
// The org identifier is the company slug.
type Lever struct {
	client *http.Client
}

// NewLever creates a connector for the Lever postings API.
func NewLever(client *http.Client) *Lever {
	return &Lever{client: client}
}

// Fetch retrieves all postings for the given company slug and normalizes
// them into the canonical model.
func (c *Lever) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, org)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceLever, Org: org, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceLever, Org: org, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.SourceError{Source: model.SourceLever, Org: org, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}}
	}

	var postings []leverPosting
	if err := json.NewDecoder(resp.Body).Decode(&postings); err != nil {
		return nil, &model.SourceError{Source: model.SourceLever, Org: org, Err: err}
	}

	jobs := make([]model.Job, 0, len(postings))
	for _, lp := range postings {
		// Prefer allLocations when present, fall back to the primary location.
		location := lp.Categories.Location
		if len(lp.Categories.AllLocations) > 0 {
			location = strings.Join(lp.Categories.AllLocations, ", ")
		}
		if location == "" && (lp.Country == "United States" || lp.Country == "USA") {
			location = lp.Country
		}

		var postedAt *time.Time
		if lp.CreatedAt > 0 {
			t := time.UnixMilli(lp.CreatedAt).UTC()
			postedAt = &t
		}

		url := lp.HostedURL
		if url == "" {
			url = lp.ApplyURL
		}

		job := model.Job{
			Source:     model.SourceLever,
			ExternalID: lp.ID,
			Title:      lp.Text,
			Company:    titleCase(org),
			Location:   location,
			URL:        url,
			PostedAt:   postedAt,
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
