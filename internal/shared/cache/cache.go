// Package cache is a small TTL key/value cache with an in-memory and a Redis
// backend behind one interface.
package cache

import (
	"context"
	"time"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Cache stores values of type V by string key. Lookups never fail: a broken
// backend reads as a miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}
