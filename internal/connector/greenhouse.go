package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anmolkh/internradar/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	CompanyName    string             `json:"company_name"`
	Location       greenhouseLocation `json:"location"`
	Offices        []greenhouseOffice `json:"offices"`
	AbsoluteURL    string             `json:"absolute_url"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseOffice struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// Greenhouse fetches postings from the Greenhouse public boards API.
// The org identifier is the board token.
type Greenhouse struct {
	client *http.Client
}

// NewGreenhouse creates a connector for the Greenhouse boards API.
func NewGreenhouse(client *http.Client) *Greenhouse {
	return &Greenhouse{client: client}
}

// Fetch retrieves all jobs on the given board and normalizes them into the
// canonical model. Raw titles are preserved untouched for the classifier.
func (c *Greenhouse) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, org)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceGreenhouse, Org: org, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceGreenhouse, Org: org, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.SourceError{Source: model.SourceGreenhouse, Org: org, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, &model.SourceError{Source: model.SourceGreenhouse, Org: org, Err: err}
	}

	jobs := make([]model.Job, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		location := gj.Location.Name
		if location == "" && len(gj.Offices) > 0 {
			names := make([]string, 0, len(gj.Offices))
			for _, office := range gj.Offices {
				names = append(names, office.Name)
			}
			location = joinNonEmpty(names)
		}

		company := gj.CompanyName
		if company == "" {
			company = titleCase(org)
		}

		job := model.Job{
			Source:     model.SourceGreenhouse,
			ExternalID: fmt.Sprintf("%d", gj.ID),
			Title:      gj.Title,
			Company:    company,
			Location:   location,
			URL:        gj.AbsoluteURL,
			PostedAt:   parseTime(gj.FirstPublished),
			UpdatedAt:  parseTime(gj.UpdatedAt),
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
