package queryapi

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
	pkgredis "github.com/sciwatch/drug-mentions-platform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "dmq:"

// QueryCache stores serialized query responses in Redis. Concurrent misses
// for the same key are collapsed into a single computation via singleflight.
type QueryCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewQueryCache creates a QueryCache over the given Redis client.
func NewQueryCache(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached response for the query name and parameter.
func (c *QueryCache) Get(ctx context.Context, name, param string) ([]byte, bool) {
	key := buildKey(name, param)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "query", name, "param", param)
	return []byte(data), true
}

// Set stores a serialized response with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, name, param string, data []byte) {
	key := buildKey(name, param)
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes, caches, and returns
// it. The bool reports whether the response came from the cache.
func (c *QueryCache) GetOrCompute(ctx context.Context, name, param string, compute func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok := c.Get(ctx, name, param); ok {
		return data, true, nil
	}
	key := buildKey(name, param)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(ctx, name, param); ok {
			return data, nil
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, name, param, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate deletes every cached query response. Called when a graph-updated
// event announces a new snapshot.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func buildKey(name, param string) string {
	hash := sha256.Sum256([]byte(name + ":" + param))
	return fmt.Sprintf("%s%s:%x", keyPrefix, name, hash[:16])
}
