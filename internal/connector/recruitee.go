package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anmolkh/internradar/internal/model"
)

// recruiteeResponse is the top-level Recruitee offers API response.
type recruiteeResponse struct {
	Offers []recruiteeOffer `json:"offers"`
}

type recruiteeOffer struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	CompanyName   string            `json:"company_name"`
	Location      recruiteeLocation `json:"location"`
	LocationLabel string            `json:"location_label"`
	CareersURL    string            `json:"careers_url"`
	URL           string            `json:"url"`
	PublishedAt   string            `json:"published_at"`
}

type recruiteeLocation struct {
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Recruitee fetches postings from the Recruitee public offers API.
// The org identifier is the company subdomain.
type Recruitee struct {
	client  *http.Client
	baseURL string // overridable for tests; empty means https://{org}.recruitee.com
}

// NewRecruitee creates a connector for the Recruitee offers API.
func NewRecruitee(client *http.Client) *Recruitee {
	return &Recruitee{client: client}
}

// Fetch retrieves all offers for the given company subdomain and normalizes
// them into the canonical model.
func (c *Recruitee) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.recruitee.com", org)
	}
	url := base + "/api/offers/?limit=100"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceRecruitee, Org: org, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SourceError{Source: model.SourceRecruitee, Org: org, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.SourceError{Source: model.SourceRecruitee, Org: org, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}}
	}

	var rcResp recruiteeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rcResp); err != nil {
		return nil, &model.SourceError{Source: model.SourceRecruitee, Org: org, Err: err}
	}

	jobs := make([]model.Job, 0, len(rcResp.Offers))
	for _, offer := range rcResp.Offers {
		company := offer.CompanyName
		if company == "" {
			company = titleCase(org)
		}

		url := offer.CareersURL
		if url == "" {
			url = offer.URL
		}

		job := model.Job{
			Source:     model.SourceRecruitee,
			ExternalID: fmt.Sprintf("%d", offer.ID),
			Title:      offer.Title,
			Company:    company,
			Location:   normalizeRecruiteeLocation(offer),
			URL:        url,
			PostedAt:   parseTime(offer.PublishedAt),
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// normalizeRecruiteeLocation reduces the structured location to one string,
// appending the country when the code says US but the text does not.
func normalizeRecruiteeLocation(offer recruiteeOffer) string {
	location := joinNonEmpty([]string{offer.Location.City, offer.Location.Region, offer.Location.Country})
	if location == "" {
		location = offer.LocationLabel
	}

	code := strings.ToLower(offer.Location.CountryCode)
	if code == "us" || code == "usa" {
		if location == "" {
			return "United States"
		}
		if !strings.Contains(strings.ToLower(location), "united states") {
			return location + ", United States"
		}
	}
	return location
}
