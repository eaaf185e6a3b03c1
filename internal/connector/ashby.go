package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anmolkh/internradar/internal/model"
)

const ashbyGraphQLURL = "https://jobs.ashbyhq.com/api/non-user-graphql"

// ashbyBoardQuery is the anonymous GraphQL query Ashby's own job board UI
// issues; it needs no credentials.
const ashbyBoardQuery = `query JobBoardWithTeams($organizationHostedJobsPageName: String!) { ` +
	`jobBoardWithTeams(organizationHostedJobsPageName: $organizationHostedJobsPageName) { ` +
	`jobPostings { id title locationName employmentType teamId } ` +
	`teams { id name } ` +
	`} }`

type ashbyRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type ashbyResponse struct {
	Data struct {
		JobBoardWithTeams struct {
			JobPostings []ashbyPosting `json:"jobPostings"`
			Teams       []ashbyTeam    `json:"teams"`
		} `json:"jobBoardWithTeams"`
	} `json:"data"`
}

type ashbyPosting struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LocationName string `json:"locationName"`
	TeamID       string `json:"teamId"`
}

type ashbyTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ashby fetches postings from the Ashby hosted job board GraphQL API.
// The org identifier is the hosted jobs page name.
type Ashby struct {
	client *http.Client
}

// NewAshby creates a connector for the Ashby job board API.
func NewAshby(client *http.Client) *Ashby {
	return &Ashby{client: client}
}

// Fetch retrieves all postings for the given hosted board and normalizes
// them into the canonical model. Ashby's board response carries no
// timestamps, so PostedAt and UpdatedAt stay nil.
func (c *Ashby) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	payload := ashbyRequest{
		OperationName: "JobBoardWithTeams",
		Query:         ashbyBoardQuery,
		Variables:     map[string]any{"organizationHostedJobsPageName": org},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceAshby, Org: org, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ashbyGraphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceAshby, Org: org, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceAshby, Org: org, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.SourceError{Source: model.SourceAshby, Org: org, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}}
	}

	var ashbyResp ashbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&ashbyResp); err != nil {
		return nil, &model.SourceError{Source: model.SourceAshby, Org: org, Err: err}
	}

	board := ashbyResp.Data.JobBoardWithTeams
	teams := make(map[string]string, len(board.Teams))
	for _, team := range board.Teams {
		teams[team.ID] = team.Name
	}

	jobs := make([]model.Job, 0, len(board.JobPostings))
	for _, ap := range board.JobPostings {
		company := teams[ap.TeamID]
		if company == "" {
			company = titleCase(org)
		}

		job := model.Job{
			Source:     model.SourceAshby,
			ExternalID: ap.ID,
			Title:      ap.Title,
			Company:    company,
			Location:   ap.LocationName,
			URL:        fmt.Sprintf("https://jobs.ashbyhq.com/%s/%s", org, ap.ID),
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
