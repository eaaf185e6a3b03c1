package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/model"
)

// CycleReport summarizes one fetch-filter-dedup pass for one source.
type CycleReport struct {
	Source     model.Source
	New        int
	Updated    int
	Rejected   int
	FailedOrgs []string
	Err        error // non-nil only when persistence failed and aborted the cycle
}

// Coordinator orchestrates one polling cycle for a source: it fans out over
// the source's organizations with bounded parallelism, classifies and
// deduplicates every listing, and publishes admissions to the hub.
type Coordinator struct {
	classifier       model.Classifier
	store            model.JobStore
	hub              *broadcast.Hub
	maxInFlight      int // per-source concurrent org fetches
	broadcastUpdates bool
	logger           *slog.Logger
}

// NewCoordinator wires a coordinator with its dependencies. maxInFlight
// bounds concurrent org fetches within a cycle; values below 1 mean
// sequential.
func NewCoordinator(
	classifier model.Classifier,
	store model.JobStore,
	hub *broadcast.Hub,
	maxInFlight int,
	broadcastUpdates bool,
	logger *slog.Logger,
) *Coordinator {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Coordinator{
		classifier:       classifier,
		store:            store,
		hub:              hub,
		maxInFlight:      maxInFlight,
		broadcastUpdates: broadcastUpdates,
		logger:           logger,
	}
}

// RunCycle polls every organization of one source through the given
// connector. One org's failure never stops the others; only a persistence
// failure aborts the cycle, and that is reported, not fatal to the process.
func (c *Coordinator) RunCycle(ctx context.Context, source model.Source, conn model.Connector, orgs []string) CycleReport {
	report := CycleReport{Source: source}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxInFlight)

	for _, org := range orgs {
		g.Go(func() error {
			jobs, err := conn.Fetch(gctx, org)
			if err != nil {
				c.logger.Warn("source unavailable",
					"source", source,
					"org", org,
					"error", err,
				)
				mu.Lock()
				report.FailedOrgs = append(report.FailedOrgs, org)
				mu.Unlock()
				return nil
			}

			// Listings from one org are processed in provider order.
			for _, job := range jobs {
				if !c.classifier.Match(job) {
					mu.Lock()
					report.Rejected++
					mu.Unlock()
					continue
				}

				outcome, err := c.store.Upsert(gctx, job)
				if err != nil {
					// Persistence loss is cycle-fatal; cancel the
					// remaining fetches and let the next tick retry.
					return fmt.Errorf("persisting %s/%s: %w", job.Source, job.ExternalID, err)
				}

				switch outcome {
				case model.OutcomeInserted:
					mu.Lock()
					report.New++
					mu.Unlock()
					c.hub.Publish(broadcast.Event{Kind: broadcast.KindNew, Job: job})
				case model.OutcomeUpdated:
					mu.Lock()
					report.Updated++
					mu.Unlock()
					if c.broadcastUpdates {
						c.hub.Publish(broadcast.Event{Kind: broadcast.KindUpdated, Job: job})
					}
				}
			}
			return nil
		})
	}

	report.Err = g.Wait()

	c.logger.Info("cycle complete",
		"source", source,
		"orgs", len(orgs),
		"new", report.New,
		"updated", report.Updated,
		"rejected", report.Rejected,
		"failed_orgs", len(report.FailedOrgs),
	)

	return report
}
