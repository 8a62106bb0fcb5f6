package redis

import (
	"context"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/application/query"
)

// EligibilityCache implements query.SnapshotCache over Redis.
// Snapshots are invalidated as a group after every reconciliation or
// registry change, so a stale dashboard never outlives its data.
type EligibilityCache struct {
	cache *Cache
}

// NewEligibilityCache creates a snapshot cache backed by Redis.
func NewEligibilityCache(cache *Cache) *EligibilityCache {
	return &EligibilityCache{cache: cache}
}

// Get returns the cached snapshot for the program key.
// Returns ErrCacheMiss when absent.
func (c *EligibilityCache) Get(ctx context.Context, key string) (*query.EligibilitySnapshot, error) {
	var snapshot query.EligibilitySnapshot
	if err := c.cache.Get(ctx, EligibilityKey(key), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Set stores a snapshot with a TTL.
func (c *EligibilityCache) Set(ctx context.Context, key string, snapshot *query.EligibilitySnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLEligibilitySnapshot
	}
	return c.cache.Set(ctx, EligibilityKey(key), snapshot, ttl)
}

// Invalidate drops every cached snapshot.
func (c *EligibilityCache) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixEligibility+"*")
}
