package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anmolkh/internradar/internal/model"
)

// matchFunc adapts a function into a model.Classifier.
type matchFunc func(model.Job) bool

func (f matchFunc) Match(job model.Job) bool { return f(job) }

func smartRecruitersHandler(t *testing.T, detailCalls *atomic.Int64) http.HandlerFunc {
	t.Helper()
	listPayload := `{
		"content": [
			{
				"id": "sr-1",
				"name": "Robotics Intern",
				"ref": "https://api.smartrecruiters.com/v1/companies/acme/postings/sr-1",
				"releasedDate": "2026-03-01T12:00:00Z",
				"location": {"city": "Pittsburgh", "region": "PA", "country": "us"},
				"company": {"name": "Acme Robotics"}
			},
			{
				"id": "sr-2",
				"name": "Account Executive",
				"ref": "https://api.smartrecruiters.com/v1/companies/acme/postings/sr-2",
				"releasedDate": "2026-03-02T12:00:00Z",
				"location": {"fullLocation": "London, United Kingdom", "country": "gb"}
			}
		]
	}`
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/companies/acme/postings":
			w.Write([]byte(listPayload))
		case strings.HasPrefix(r.URL.Path, "/v1/companies/acme/postings/"):
			detailCalls.Add(1)
			id := strings.TrimPrefix(r.URL.Path, "/v1/companies/acme/postings/")
			fmt.Fprintf(w, `{"applyUrl": "https://jobs.smartrecruiters.com/apply/%s"}`, id)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSmartRecruitersFetch_Success(t *testing.T) {
	var detailCalls atomic.Int64
	srv := httptest.NewServer(smartRecruitersHandler(t, &detailCalls))
	defer srv.Close()

	jobs, err := NewSmartRecruiters(testClient(srv), nil).Fetch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Source != model.SourceSmartRecruiters {
		t.Errorf("expected source smartrecruiters, got %s", j.Source)
	}
	if j.Company != "Acme Robotics" {
		t.Errorf("expected company Acme Robotics, got %s", j.Company)
	}
	if j.Location != "Pittsburgh, PA, United States" {
		t.Errorf("unexpected location: %q", j.Location)
	}
	if j.URL != "https://jobs.smartrecruiters.com/apply/sr-1" {
		t.Errorf("expected resolved apply URL, got %s", j.URL)
	}
	if j.PostedAt == nil || j.UpdatedAt == nil || !j.PostedAt.Equal(*j.UpdatedAt) {
		t.Errorf("releasedDate should populate both timestamps: %v / %v", j.PostedAt, j.UpdatedAt)
	}

	// Without a pre-filter every posting gets a detail fetch.
	if got := detailCalls.Load(); got != 2 {
		t.Errorf("expected 2 detail calls, got %d", got)
	}

	if jobs[1].Location != "London, United Kingdom" {
		t.Errorf("non-US location should pass through untouched, got %q", jobs[1].Location)
	}
}

func TestSmartRecruitersFetch_PreFilterBoundsDetailCalls(t *testing.T) {
	var detailCalls atomic.Int64
	srv := httptest.NewServer(smartRecruitersHandler(t, &detailCalls))
	defer srv.Close()

	internOnly := matchFunc(func(job model.Job) bool {
		return strings.Contains(job.Title, "Intern")
	})

	jobs, err := NewSmartRecruiters(testClient(srv), internOnly).Fetch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("all postings still returned, got %d", len(jobs))
	}
	if got := detailCalls.Load(); got != 1 {
		t.Errorf("expected 1 detail call for the matching posting, got %d", got)
	}
	// Filtered-out posting keeps the public posting page URL.
	if jobs[1].URL != "https://jobs.smartrecruiters.com/acme/sr-2" {
		t.Errorf("expected fallback posting URL, got %s", jobs[1].URL)
	}
}

func TestSmartRecruitersFetch_DetailFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/companies/acme/postings" {
			w.Write([]byte(`{"content": [{"id": "sr-9", "name": "Data Intern", "ref": "https://api.smartrecruiters.com/v1/companies/acme/postings/sr-9", "location": {"city": "Boston", "region": "MA", "country": "us"}}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	jobs, err := NewSmartRecruiters(testClient(srv), nil).Fetch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].URL != "https://jobs.smartrecruiters.com/acme/sr-9" {
		t.Errorf("expected fallback posting URL, got %s", jobs[0].URL)
	}
}
