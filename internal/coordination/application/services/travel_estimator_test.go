package services

import (
	"context"
	"testing"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seoulCityHall = domain.Coordinates{Lat: 37.5665, Lng: 126.9780}
	gangnam       = domain.Coordinates{Lat: 37.4979, Lng: 127.0276}
)

func TestHaversineEstimateZeroCases(t *testing.T) {
	e := NewHaversineEstimator()

	// Same coordinates travel zero minutes.
	est, err := e.Estimate(context.Background(), seoulCityHall, seoulCityHall, domain.TravelDriving)
	require.NoError(t, err)
	assert.Zero(t, est.Minutes)

	// Mode none never produces travel.
	est, err = e.Estimate(context.Background(), seoulCityHall, gangnam, domain.TravelNone)
	require.NoError(t, err)
	assert.Zero(t, est.Minutes)
}

func TestHaversineEstimateGranularity(t *testing.T) {
	e := NewHaversineEstimator()

	est, err := e.Estimate(context.Background(), seoulCityHall, gangnam, domain.TravelDriving)
	require.NoError(t, err)
	assert.Positive(t, est.Minutes)
	assert.Zero(t, est.Minutes%domain.SlotGranularity)
	assert.NotEmpty(t, est.DistanceText)
}

func TestHaversineEstimateModeSpeeds(t *testing.T) {
	e := NewHaversineEstimator()
	ctx := context.Background()

	driving, err := e.Estimate(ctx, seoulCityHall, gangnam, domain.TravelDriving)
	require.NoError(t, err)
	walking, err := e.Estimate(ctx, seoulCityHall, gangnam, domain.TravelWalking)
	require.NoError(t, err)

	assert.Greater(t, walking.Minutes, driving.Minutes)
}

func TestHaversineKm(t *testing.T) {
	km := HaversineKm(seoulCityHall, gangnam)
	// City Hall to Gangnam station is roughly 8-9 km as the crow flies.
	assert.InDelta(t, 8.7, km, 1.0)

	assert.Zero(t, HaversineKm(seoulCityHall, seoulCityHall))
}
