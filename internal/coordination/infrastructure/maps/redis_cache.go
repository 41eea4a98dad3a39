package maps

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moyeolab/moyeo/internal/coordination/application/services"
)

// redisCacheTTL bounds staleness of cached route durations.
const redisCacheTTL = 24 * time.Hour

// RedisCache shares travel estimates across instances. Lookups degrade to
// cache misses on Redis errors.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed distance cache.
func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, logger: logger}
}

// Get implements DistanceCache.
func (c *RedisCache) Get(ctx context.Context, key string) (services.TravelEstimate, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("distance cache read failed", slog.String("error", err.Error()))
		}
		return services.TravelEstimate{}, false
	}
	var estimate services.TravelEstimate
	if err := json.Unmarshal(raw, &estimate); err != nil {
		return services.TravelEstimate{}, false
	}
	return estimate, true
}

// Set implements DistanceCache.
func (c *RedisCache) Set(ctx context.Context, key string, estimate services.TravelEstimate) {
	raw, err := json.Marshal(estimate)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, redisCacheTTL).Err(); err != nil {
		c.logger.Warn("distance cache write failed", slog.String("error", err.Error()))
	}
}
