package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anmolkh/internradar/internal/ingest"
	"github.com/anmolkh/internradar/internal/model"
)

// Plan describes one source's polling timeline: which connector to drive,
// which organizations to cover, and how often.
type Plan struct {
	Source    model.Source
	Connector model.Connector
	Orgs      []string
	Interval  time.Duration
}

// shutdownGrace bounds how long Run waits for in-flight cycles after cancel.
const shutdownGrace = 10 * time.Second

// Scheduler drives one independent timeline per source. Sources tick and
// run concurrently with each other; within one source, a tick that fires
// while the previous cycle is still running is skipped, never queued.
type Scheduler struct {
	plans       []Plan
	coordinator *ingest.Coordinator
	jitter      float64 // fraction of the interval, e.g. 0.15 for ±15%
	logger      *slog.Logger

	cycles sync.WaitGroup
}

// NewScheduler creates a scheduler for the given plans.
func NewScheduler(plans []Plan, coordinator *ingest.Coordinator, jitter float64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		plans:       plans,
		coordinator: coordinator,
		jitter:      jitter,
		logger:      logger,
	}
}

// Run starts every source timeline, runs one immediate cycle each, and
// blocks until ctx is cancelled. On shutdown it waits up to a bounded grace
// period for in-flight cycles, then returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "sources", len(s.plans))

	var loops sync.WaitGroup
	for _, plan := range s.plans {
		loops.Add(1)
		go func() {
			defer loops.Done()
			s.runSource(ctx, plan)
		}()
	}
	loops.Wait()

	// Bounded grace for cycles still in flight.
	done := make(chan struct{})
	go func() {
		s.cycles.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.logger.Warn("shutdown grace elapsed with cycles still in flight")
	}

	s.logger.Info("scheduler stopped")
	return nil
}

// runSource is one source's timeline: immediate first cycle, then jittered
// ticks until ctx is cancelled.
func (s *Scheduler) runSource(ctx context.Context, plan Plan) {
	s.logger.Info("source timeline started",
		"source", plan.Source,
		"orgs", len(plan.Orgs),
		"interval", plan.Interval.String(),
	)

	var running atomic.Bool
	s.launch(ctx, plan, &running)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.jittered(plan.Interval)):
			s.launch(ctx, plan, &running)
		}
	}
}

// launch starts one cycle unless the previous one for this source has not
// finished, in which case the tick is dropped.
func (s *Scheduler) launch(ctx context.Context, plan Plan, running *atomic.Bool) {
	if !running.CompareAndSwap(false, true) {
		s.logger.Warn("previous cycle still running, skipping tick", "source", plan.Source)
		return
	}

	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()
		defer running.Store(false)

		report := s.coordinator.RunCycle(ctx, plan.Source, plan.Connector, plan.Orgs)
		if report.Err != nil {
			s.logger.Error("cycle aborted",
				"source", plan.Source,
				"error", report.Err,
			)
		}
	}()
}

// jittered offsets the interval by a random fraction so sources do not
// hammer their upstreams in lockstep after a restart.
func (s *Scheduler) jittered(interval time.Duration) time.Duration {
	if s.jitter <= 0 {
		return interval
	}
	offset := (rand.Float64()*2 - 1) * s.jitter
	return interval + time.Duration(float64(interval)*offset)
}
