package maps

import (
	"context"
	"fmt"
	"sync"

	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// DistanceCache memoizes travel estimates by rounded coordinate pair and mode.
type DistanceCache interface {
	Get(ctx context.Context, key string) (services.TravelEstimate, bool)
	Set(ctx context.Context, key string, estimate services.TravelEstimate)
}

// CacheKey builds the memoization key. Coordinates are rounded to 4 decimal
// places (~11 m) so near-identical addresses share an entry.
func CacheKey(from, to domain.Coordinates, mode domain.TravelMode) string {
	return fmt.Sprintf("travel:%.4f,%.4f:%.4f,%.4f:%s", from.Lat, from.Lng, to.Lat, to.Lng, mode)
}

// MemoryCache is the in-process cache used in local mode and as the default.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]services.TravelEstimate
}

// NewMemoryCache creates an empty in-process distance cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]services.TravelEstimate)}
}

// Get implements DistanceCache.
func (c *MemoryCache) Get(_ context.Context, key string) (services.TravelEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	estimate, ok := c.entries[key]
	return estimate, ok
}

// Set implements DistanceCache.
func (c *MemoryCache) Set(_ context.Context, key string, estimate services.TravelEstimate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = estimate
}
