package connector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anmolkh/internradar/internal/model"
)

func TestAshbyFetch_Success(t *testing.T) {
	payload := `{
		"data": {
			"jobBoardWithTeams": {
				"jobPostings": [
					{
						"id": "p-1",
						"title": "Infrastructure Intern",
						"locationName": "Remote - US",
						"employmentType": "Intern",
						"teamId": "t-1"
					},
					{
						"id": "p-2",
						"title": "Design Intern",
						"locationName": "Los Angeles, CA",
						"teamId": "t-unknown"
					}
				],
				"teams": [
					{"id": "t-1", "name": "Acme Infrastructure"}
				]
			}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/non-user-graphql" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			OperationName string         `json:"operationName"`
			Variables     map[string]any `json:"variables"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.OperationName != "JobBoardWithTeams" {
			t.Errorf("unexpected operation: %s", req.OperationName)
		}
		if req.Variables["organizationHostedJobsPageName"] != "acme" {
			t.Errorf("unexpected variables: %v", req.Variables)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	jobs, err := NewAshby(testClient(srv)).Fetch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Source != model.SourceAshby {
		t.Errorf("expected source ashby, got %s", j.Source)
	}
	if j.Company != "Acme Infrastructure" {
		t.Errorf("expected team name as company, got %s", j.Company)
	}
	if j.URL != "https://jobs.ashbyhq.com/acme/p-1" {
		t.Errorf("unexpected URL: %s", j.URL)
	}
	if j.PostedAt != nil || j.UpdatedAt != nil {
		t.Errorf("ashby board carries no timestamps, got %v / %v", j.PostedAt, j.UpdatedAt)
	}

	// Unknown team id falls back to the slug-derived company.
	if jobs[1].Company != "Acme" {
		t.Errorf("expected fallback company Acme, got %s", jobs[1].Company)
	}
}

func TestAshbyFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAshby(testClient(srv)).Fetch(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected error for HTTP 502, got nil")
	}
}
