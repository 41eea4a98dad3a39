package services

import (
	"context"
	"fmt"
	"math"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// TravelEstimate is the result of one travel-time lookup. Minutes is always a
// non-negative multiple of the slot granularity.
type TravelEstimate struct {
	Minutes      int
	DistanceText string
}

// TravelEstimator computes travel minutes between two coordinates for a mode.
type TravelEstimator interface {
	Estimate(ctx context.Context, from, to domain.Coordinates, mode domain.TravelMode) (TravelEstimate, error)
}

// MissingCoordsPolicy decides what happens when a participant has no
// coordinates on record.
type MissingCoordsPolicy string

const (
	MissingCoordsSkip   MissingCoordsPolicy = "skip"   // treat travel as zero
	MissingCoordsReject MissingCoordsPolicy = "reject" // refuse the operation
)

const earthRadiusKm = 6371.0

// Straight-line speeds per mode in km/h for the fallback estimate.
var modeSpeedKmh = map[domain.TravelMode]float64{
	domain.TravelDriving:   40,
	domain.TravelTransit:   30,
	domain.TravelWalking:   5,
	domain.TravelBicycling: 15,
}

// HaversineEstimator derives travel minutes from great-circle distance and a
// mode-specific straight-line speed. It is both the offline default and the
// fallback when the map provider is unavailable.
type HaversineEstimator struct{}

// NewHaversineEstimator creates the fallback estimator.
func NewHaversineEstimator() *HaversineEstimator { return &HaversineEstimator{} }

// Estimate implements TravelEstimator. Identical coordinates yield zero.
func (e *HaversineEstimator) Estimate(_ context.Context, from, to domain.Coordinates, mode domain.TravelMode) (TravelEstimate, error) {
	if mode == domain.TravelNone || from == to {
		return TravelEstimate{}, nil
	}

	km := HaversineKm(from, to)
	speed, ok := modeSpeedKmh[mode]
	if !ok {
		speed = modeSpeedKmh[domain.TravelDriving]
	}

	minutes := domain.RoundUpToGranularity(int(math.Ceil(km / speed * 60)))
	return TravelEstimate{
		Minutes:      minutes,
		DistanceText: fmt.Sprintf("약 %.1fkm", km),
	}, nil
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
