package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/classify"
	"github.com/anmolkh/internradar/internal/model"
	"github.com/anmolkh/internradar/internal/store"
)

// Full pipeline against a real store: connector output through the filter,
// the dedup set, and the hub.
func TestCycle_EndToEnd(t *testing.T) {
	updatedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	conn := &fakeConnector{jobsByOrg: map[string][]model.Job{
		"examplecorp": {{
			Source:     model.SourceGreenhouse,
			ExternalID: "42",
			Title:      "Data Science Intern",
			Company:    "Examplecorp",
			Location:   "San Francisco, CA",
			URL:        "https://boards.greenhouse.io/examplecorp/jobs/42",
			UpdatedAt:  &updatedAt,
		}},
	}}

	jobStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { jobStore.Close() })

	hub := broadcast.NewHub(discardLogger())
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	c := NewCoordinator(classify.NewInternshipFilter(nil), jobStore, hub, 2, true, discardLogger())
	ctx := context.Background()

	report := c.RunCycle(ctx, model.SourceGreenhouse, conn, []string{"examplecorp"})
	if report.Err != nil {
		t.Fatalf("first cycle: %v", report.Err)
	}
	if report.New != 1 || report.Updated != 0 || report.Rejected != 0 {
		t.Fatalf("first cycle: new=%d updated=%d rejected=%d, want 1/0/0", report.New, report.Updated, report.Rejected)
	}

	select {
	case evt := <-sub:
		if evt.Kind != broadcast.KindNew {
			t.Errorf("expected job.new, got %s", evt.Kind)
		}
		if evt.Job.Source != model.SourceGreenhouse || evt.Job.ExternalID != "42" || evt.Job.Title != "Data Science Intern" {
			t.Errorf("unexpected event payload: %+v", evt.Job)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast for the admitted posting")
	}

	// A second identical fetch is a no-op: no new row, no broadcast.
	report = c.RunCycle(ctx, model.SourceGreenhouse, conn, []string{"examplecorp"})
	if report.Err != nil {
		t.Fatalf("second cycle: %v", report.Err)
	}
	if report.New != 0 || report.Updated != 0 {
		t.Fatalf("second cycle: new=%d updated=%d, want 0/0", report.New, report.Updated)
	}
	select {
	case evt := <-sub:
		t.Fatalf("unchanged re-ingest must not broadcast, got %s", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	jobs, err := jobStore.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly 1 stored row, got %d", len(jobs))
	}
}
