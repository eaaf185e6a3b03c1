package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/anmolkh/internradar/internal/model"
)

// ProviderLimiter rate-limits requests per ATS provider. All connectors
// targeting the same provider share one token bucket, so a burst of org
// fetches within a cycle stays under the provider's implicit limits.
type ProviderLimiter struct {
	mu       sync.Mutex
	limiters map[model.Source]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewProviderLimiter creates a limiter allowing rps requests per second with
// the given burst per provider.
func NewProviderLimiter(rps float64, burst int) *ProviderLimiter {
	return &ProviderLimiter{
		limiters: make(map[model.Source]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ProviderLimiter) limiterFor(source model.Source) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[source]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.limiters[source] = lim
	return lim
}

// Wait blocks until the provider's bucket allows a request or ctx ends.
func (l *ProviderLimiter) Wait(ctx context.Context, source model.Source) error {
	if err := l.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// Ensure LimitedConnector implements model.Connector.
var _ model.Connector = (*LimitedConnector)(nil)

// LimitedConnector is a decorator that waits on the shared provider limiter
// before delegating to the wrapped connector.
type LimitedConnector struct {
	inner   model.Connector
	limiter *ProviderLimiter
	source  model.Source
}

// NewLimitedConnector wraps a connector with provider-level rate limiting.
// All connectors for the same provider should share the limiter instance.
func NewLimitedConnector(inner model.Connector, limiter *ProviderLimiter, source model.Source) *LimitedConnector {
	return &LimitedConnector{
		inner:   inner,
		limiter: limiter,
		source:  source,
	}
}

// Fetch waits for the limiter to allow a request, then delegates.
func (c *LimitedConnector) Fetch(ctx context.Context, org string) ([]model.Job, error) {
	if err := c.limiter.Wait(ctx, c.source); err != nil {
		return nil, err
	}
	return c.inner.Fetch(ctx, org)
}
