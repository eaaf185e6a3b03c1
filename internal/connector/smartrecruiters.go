package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anmolkh/internradar/internal/model"
)

const smartRecruitersBaseURL = "https://api.smartrecruiters.com/v1/companies"

// smartRecruitersList is the posting list response.
type smartRecruitersList struct {
	Content []smartRecruitersPosting `json:"content"`
}

type smartRecruitersPosting struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Ref          string                  `json:"ref"`
	ReleasedDate string                  `json:"releasedDate"`
	Location     smartRecruitersLocation `json:"location"`
	Company      struct {
		Name string `json:"name"`
	} `json:"company"`
}

type smartRecruitersLocation struct {
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	FullLocation string `json:"fullLocation"`
}

// smartRecruitersDetail is the subset of the posting detail response we use.
type smartRecruitersDetail struct {
	ApplyURL string `json:"applyUrl"`
	JobAd    struct {
		ApplyURL string `json:"applyUrl"`
	} `json:"jobAd"`
}

// SmartRecruiters fetches postings from the SmartRecruiters public postings
// API. The org identifier is the company identifier.
//
// The list endpoint does not include an apply link, so a per-posting detail
// fetch is needed. An optional preFilter bounds those detail calls to
// postings that can actually be admitted, mirroring how listings that fail
// the filter are dropped anyway.
type SmartRecruiters struct {
	client    *http.Client
	preFilter model.Classifier // optional: skip detail fetches for postings that won't match
}

// NewSmartRecruiters creates a connector for the SmartRecruiters API.
// preFilter may be nil to detail-fetch every posting.
func NewSmartRecruiters(client *http.Client, preFilter model.Classifier) *SmartRecruiters {
	return &SmartRecruiters{client: client, preFilter: preFilter}
}

// Fetch retrieves postings for the given company and normalizes them into
// the canonical model.
func (c *SmartRecruiters) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s/postings?limit=100", smartRecruitersBaseURL, org)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceSmartRecruiters, Org: org, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceSmartRecruiters, Org: org, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.SourceError{Source: model.SourceSmartRecruiters, Org: org, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}}
	}

	var list smartRecruitersList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &model.SourceError{Source: model.SourceSmartRecruiters, Org: org, Err: err}
	}

	jobs := make([]model.Job, 0, len(list.Content))
	for _, sp := range list.Content {
		company := sp.Company.Name
		if company == "" {
			company = titleCase(org)
		}

		released := parseTime(sp.ReleasedDate)
		job := model.Job{
			Source:     model.SourceSmartRecruiters,
			ExternalID: sp.ID,
			Title:      sp.Name,
			Company:    company,
			Location:   normalizeSmartRecruitersLocation(sp.Location),
			URL:        fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", org, sp.ID),
			PostedAt:   released,
			UpdatedAt:  released,
		}

		// Detail fetch only for postings that can be admitted; the detail
		// endpoint carries the real apply link.
		if c.preFilter == nil || c.preFilter.Match(job) {
			if applyURL := c.fetchApplyURL(ctx, sp); applyURL != "" {
				job.URL = applyURL
			}
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// fetchApplyURL resolves the apply link from the posting detail endpoint.
// Failures fall back to the public posting page URL already on the job.
func (c *SmartRecruiters) fetchApplyURL(ctx context.Context, sp smartRecruitersPosting) string {
	url := sp.Ref
	if url == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var detail smartRecruitersDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return ""
	}

	if detail.ApplyURL != "" {
		return detail.ApplyURL
	}
	return detail.JobAd.ApplyURL
}

// normalizeSmartRecruitersLocation reduces the structured location to one
// human-readable string, appending the country when the code says US but
// the text does not.
func normalizeSmartRecruitersLocation(loc smartRecruitersLocation) string {
	location := loc.FullLocation
	if location == "" {
		location = joinNonEmpty([]string{loc.City, loc.Region})
	}

	country := strings.ToLower(loc.Country)
	if country == "us" || country == "usa" {
		if location == "" {
			return "United States"
		}
		if !strings.Contains(strings.ToLower(location), "united states") {
			return location + ", United States"
		}
	}
	return location
}
