package redis

import (
	"context"
	"errors"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/application/query"
	"github.com/pem-hub/pem-payments-hub/pkg/circuitbreaker"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// GuardedSnapshotCache wraps a SnapshotCache with a circuit breaker.
// When Redis is down, reads degrade to cache misses and writes are dropped,
// so the eligibility dashboard keeps working against the document store
// instead of timing out on every request.
type GuardedSnapshotCache struct {
	inner   query.SnapshotCache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedSnapshotCache wraps inner with a cache-tuned breaker.
func NewGuardedSnapshotCache(inner query.SnapshotCache, log *logger.Logger) *GuardedSnapshotCache {
	cbLog := log.With(logger.Component("snapshot_cache_breaker"))
	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		cbLog.Warn("cache breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return &GuardedSnapshotCache{inner: inner, breaker: breaker}
}

// Get returns the cached snapshot. A miss does not count against the
// breaker; an open circuit is reported as a miss.
func (g *GuardedSnapshotCache) Get(ctx context.Context, key string) (*query.EligibilitySnapshot, error) {
	var snapshot *query.EligibilitySnapshot
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		s, err := g.inner.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrCacheMiss) {
				snapshot = nil
				return nil
			}
			return err
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, ErrCacheMiss
	}
	if snapshot == nil {
		return nil, ErrCacheMiss
	}
	return snapshot, nil
}

// Set stores a snapshot. Dropped silently while the circuit is open.
func (g *GuardedSnapshotCache) Set(ctx context.Context, key string, snapshot *query.EligibilitySnapshot, ttl time.Duration) error {
	return g.breaker.ExecuteWithFallback(ctx,
		func(ctx context.Context) error {
			return g.inner.Set(ctx, key, snapshot, ttl)
		},
		func(error) error { return nil },
	)
}

// Invalidate drops the cached snapshots. While the circuit is open the
// entries are left to expire by TTL.
func (g *GuardedSnapshotCache) Invalidate(ctx context.Context) error {
	return g.breaker.ExecuteWithFallback(ctx,
		func(ctx context.Context) error {
			return g.inner.Invalidate(ctx)
		},
		func(error) error { return nil },
	)
}

// BreakerState exposes the breaker state for health reporting.
func (g *GuardedSnapshotCache) BreakerState() circuitbreaker.State {
	return g.breaker.State()
}
