package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/anmolkh/internradar/internal/model"
)

func TestWait_SameProvider_EnforcesRate(t *testing.T) {
	// 10 rps, burst 1: the second request must wait ~100ms.
	limiter := NewProviderLimiter(10, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, model.SourceGreenhouse); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, model.SourceGreenhouse); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_BurstAllowsImmediateRequests(t *testing.T) {
	limiter := NewProviderLimiter(1, 3)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, model.SourceLever); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst should not block, took %v", elapsed)
	}
}

func TestWait_DifferentProviders_NoCrossBlocking(t *testing.T) {
	limiter := NewProviderLimiter(5, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, model.SourceGreenhouse); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// Immediately call for lever — separate bucket, should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, model.SourceLever); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewProviderLimiter(0.2, 1) // one request per 5s

	if err := limiter.Wait(context.Background(), model.SourceAshby); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	if err := limiter.Wait(ctx, model.SourceAshby); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// --- Mock for LimitedConnector test ---

type recordingConnector struct {
	called bool
}

func (c *recordingConnector) Fetch(_ context.Context, _ string) ([]model.Job, error) {
	c.called = true
	return nil, nil
}

func TestLimitedConnector_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewProviderLimiter(10, 1)
	inner := &recordingConnector{}
	conn := NewLimitedConnector(inner, limiter, model.SourceGreenhouse)
	ctx := context.Background()

	// First call — seeds the bucket, then delegates.
	if _, err := conn.Fetch(ctx, "acme"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner connector was not called on first fetch")
	}

	// Reset.
	inner.called = false

	// Second call — should wait for the limiter.
	start := time.Now()
	if _, err := conn.Fetch(ctx, "acme"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner connector was not called on second fetch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}
