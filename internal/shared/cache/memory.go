package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Memory process-local cache; expired entries are swept every cleanup interval.
// Values are kept as given, so Get hands out the stored value itself.
type Memory[V any] struct {
	useCase string
	cache   *gocache.Cache
	logger  *zap.Logger
}

func NewMemory[V any](useCase string, defaultExpiration, cleanupInterval time.Duration, logger *zap.Logger) *Memory[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
		logger:  logger,
	}
}

func (c *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		c.logger.Error("wrong type in cache", zap.String("cache", c.useCase), zap.String("key", key))
		return zero, false
	}
	c.logger.Debug("cache hit", zap.String("cache", c.useCase), zap.String("key", key))
	return v, true
}

func (c *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

func (c *Memory[V]) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

func (c *Memory[V]) Flush(_ context.Context) error {
	c.cache.Flush()
	return nil
}

// Len number of entries, expired ones included until the next sweep.
func (c *Memory[V]) Len() int {
	return c.cache.ItemCount()
}
