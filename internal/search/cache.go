package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/searchkit/retrieval/pkg/config"
	pkgredis "github.com/searchkit/retrieval/pkg/redis"
)

const keyPrefix = "query:"

// QueryCache caches marshaled query responses in Redis, keyed by operation
// and parameters. Concurrent identical misses are collapsed through
// singleflight so only one computes.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewQueryCache creates a cache over an established Redis client.
func NewQueryCache(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Key derives a stable cache key from an operation name and its parameters.
func Key(op string, params ...string) string {
	raw := op + "|" + strings.Join(params, "|")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, op, hash[:16])
}

// GetOrCompute returns the cached payload for key, or runs compute once (per
// key, across concurrent callers), stores the result with the configured
// TTL, and returns it. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok := c.get(ctx, key); ok {
		return data, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.get(ctx, key); ok {
			return data, nil
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

func (c *QueryCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return []byte(data), true
}

func (c *QueryCache) set(ctx context.Context, key string, data []byte) {
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached query result. Called after each index swap
// so stale results never outlive the snapshot they came from.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
