package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "vegloss:tiles:"

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// TileCache is a domain.Analyzer decorator that reuses tile layers computed
// for an identical query. Redis errors are logged and treated as a miss.
type TileCache struct {
	inner   domain.Analyzer
	rdb     goredis.Cmdable
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTileCache wraps inner with a Redis-backed cache.
func NewTileCache(inner domain.Analyzer, rdb goredis.Cmdable, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *TileCache {
	return &TileCache{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// ComputeLossMap returns the cached map for q or computes and stores it.
func (c *TileCache) ComputeLossMap(ctx context.Context, q domain.LossQuery) (domain.LossMap, error) {
	key := cacheKey(q)

	if m, ok := c.lookup(ctx, key); ok {
		m.Cached = true
		return m, nil
	}

	m, err := c.inner.ComputeLossMap(ctx, q)
	if err != nil {
		return m, err
	}

	data, err := json.Marshal(m)
	if err != nil {
		c.logger.Warn("encode tile cache entry", "error", err)
		return m, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.metrics.TileCache.WithLabelValues("error").Inc()
		c.logger.Warn("tile cache write failed", "key", key, "error", err)
	}
	return m, nil
}

// CheckReadiness forwards to the wrapped analyzer when it supports it.
func (c *TileCache) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(domain.ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

func (c *TileCache) lookup(ctx context.Context, key string) (domain.LossMap, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		c.metrics.TileCache.WithLabelValues("miss").Inc()
		return domain.LossMap{}, false
	case err != nil:
		c.metrics.TileCache.WithLabelValues("error").Inc()
		c.logger.Warn("tile cache read failed", "key", key, "error", err)
		return domain.LossMap{}, false
	}

	var m domain.LossMap
	if err := json.Unmarshal(data, &m); err != nil || m.TileURL == "" {
		c.metrics.TileCache.WithLabelValues("error").Inc()
		c.logger.Warn("discarding corrupt tile cache entry", "key", key)
		return domain.LossMap{}, false
	}
	c.metrics.TileCache.WithLabelValues("hit").Inc()
	return m, true
}

// cacheKey rounds the center to ~11 m so repeated clicks on the same spot share an entry.
func cacheKey(q domain.LossQuery) string {
	return fmt.Sprintf("%s%.4f:%.4f:%g:%d:%d",
		keyPrefix,
		q.Area.Center.Lat,
		q.Area.Center.Lon,
		q.Area.RadiusMeters,
		q.BaseYear,
		q.CompareYear,
	)
}
