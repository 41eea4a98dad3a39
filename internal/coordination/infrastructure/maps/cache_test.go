package maps

import (
	"context"
	"testing"

	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyRoundsCoordinates(t *testing.T) {
	a := domain.Coordinates{Lat: 37.56651, Lng: 126.97801}
	b := domain.Coordinates{Lat: 37.49791, Lng: 127.02761}

	key := CacheKey(a, b, domain.TravelDriving)
	assert.Equal(t, "travel:37.5665,126.9780:37.4979,127.0276:driving", key)

	// Sub-11m jitter maps to the same entry.
	jittered := domain.Coordinates{Lat: 37.56653, Lng: 126.97799}
	assert.Equal(t, key, CacheKey(jittered, b, domain.TravelDriving))

	// Mode is part of the key.
	assert.NotEqual(t, key, CacheKey(a, b, domain.TravelWalking))
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	key := CacheKey(domain.Coordinates{Lat: 37.5, Lng: 127.0}, domain.Coordinates{Lat: 37.6, Lng: 127.1}, domain.TravelTransit)

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(ctx, key, services.TravelEstimate{Minutes: 30, DistanceText: "약 8.7km"})

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 30, got.Minutes)
	assert.Equal(t, "약 8.7km", got.DistanceText)
}
