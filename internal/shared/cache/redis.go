package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis shared cache; values are stored as JSON under prefix+key.
type Redis[V any] struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis[V any](rdb *redis.Client, prefix string, logger *zap.Logger) *Redis[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis[V]{rdb: rdb, prefix: prefix, logger: logger}
}

func (c *Redis[V]) key(k string) string {
	return c.prefix + k
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Error("redis value decode failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("redis value encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Redis[V]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Flush removes every key under the prefix.
func (c *Redis[V]) Flush(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, batch...).Err()
}
