package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anmolkh/internradar/internal/model"
)

func TestLeverFetch_Success(t *testing.T) {
	payload := `[
		{
			"id": "abc-123",
			"text": "Machine Learning Intern",
			"categories": {
				"team": "ML",
				"location": "New York, NY",
				"allLocations": ["New York, NY", "San Francisco, CA"],
				"commitment": "Intern"
			},
			"country": "US",
			"createdAt": 1770000000000,
			"hostedUrl": "https://jobs.lever.co/acme/abc-123",
			"applyUrl": "https://jobs.lever.co/acme/abc-123/apply"
		},
		{
			"id": "def-456",
			"text": "Platform Intern",
			"categories": {"location": ""},
			"country": "United States",
			"createdAt": 0,
			"hostedUrl": "",
			"applyUrl": "https://jobs.lever.co/acme/def-456/apply"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/postings/acme" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("mode") != "json" {
			t.Errorf("expected mode=json, got query %q", r.URL.RawQuery)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	jobs, err := NewLever(testClient(srv)).Fetch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Source != model.SourceLever {
		t.Errorf("expected source lever, got %s", j.Source)
	}
	if j.ExternalID != "abc-123" {
		t.Errorf("expected external id abc-123, got %s", j.ExternalID)
	}
	if j.Company != "Acme" {
		t.Errorf("expected company Acme, got %s", j.Company)
	}
	if j.Location != "New York, NY, San Francisco, CA" {
		t.Errorf("expected allLocations join, got %q", j.Location)
	}
	if j.URL != "https://jobs.lever.co/acme/abc-123" {
		t.Errorf("expected hostedUrl, got %s", j.URL)
	}
	if j.PostedAt == nil || !j.PostedAt.Equal(time.UnixMilli(1770000000000).UTC()) {
		t.Errorf("unexpected PostedAt: %v", j.PostedAt)
	}
	if j.UpdatedAt != nil {
		t.Errorf("lever carries no update signal, got UpdatedAt %v", j.UpdatedAt)
	}

	// Second posting: empty location falls back to the US country label,
	// missing hostedUrl falls back to applyUrl, zero createdAt stays nil.
	j = jobs[1]
	if j.Location != "United States" {
		t.Errorf("expected country fallback, got %q", j.Location)
	}
	if j.URL != "https://jobs.lever.co/acme/def-456/apply" {
		t.Errorf("expected applyUrl fallback, got %s", j.URL)
	}
	if j.PostedAt != nil {
		t.Errorf("expected nil PostedAt for zero createdAt, got %v", j.PostedAt)
	}
}

func TestLeverFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLever(testClient(srv)).Fetch(context.Background(), "gone-co")
	if err == nil {
		t.Fatal("expected error for HTTP 404, got nil")
	}
}
