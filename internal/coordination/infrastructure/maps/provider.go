package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// ProviderConfig tunes the external routing client.
type ProviderConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxConcurrent  int
}

// DefaultProviderConfig returns the routing client defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		RequestTimeout: 3 * time.Second,
		MaxConcurrent:  4,
	}
}

// routeResponse is the provider's directions payload.
type routeResponse struct {
	DurationSeconds int    `json:"duration_seconds"`
	DistanceText    string `json:"distance_text"`
}

// ProviderEstimator resolves travel durations from an external routing API.
// Requests run behind a circuit breaker with a bounded timeout and bounded
// concurrency; any failure falls back to the haversine estimate so a provider
// outage never blocks scheduling.
type ProviderEstimator struct {
	config    ProviderConfig
	client    *http.Client
	fallback  services.TravelEstimator
	cache     DistanceCache
	breaker   *gobreaker.CircuitBreaker[services.TravelEstimate]
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewProviderEstimator creates the routing adapter. cache may be nil.
func NewProviderEstimator(config ProviderConfig, cache DistanceCache, logger *slog.Logger) *ProviderEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 3 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	settings := gobreaker.Settings{
		Name:    "map-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &ProviderEstimator{
		config:    config,
		client:    &http.Client{Timeout: config.RequestTimeout},
		fallback:  services.NewHaversineEstimator(),
		cache:     cache,
		breaker:   gobreaker.NewCircuitBreaker[services.TravelEstimate](settings),
		semaphore: make(chan struct{}, config.MaxConcurrent),
		logger:    logger,
	}
}

// Estimate implements services.TravelEstimator.
func (p *ProviderEstimator) Estimate(ctx context.Context, from, to domain.Coordinates, mode domain.TravelMode) (services.TravelEstimate, error) {
	if mode == domain.TravelNone || from == to {
		return services.TravelEstimate{}, nil
	}

	key := CacheKey(from, to, mode)
	if estimate, ok := p.cache.Get(ctx, key); ok {
		return estimate, nil
	}

	estimate, err := p.breaker.Execute(func() (services.TravelEstimate, error) {
		return p.fetchRoute(ctx, from, to, mode)
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) {
			p.logger.Warn("map provider request failed, using haversine fallback",
				slog.String("error", err.Error()))
		}
		return p.fallback.Estimate(ctx, from, to, mode)
	}

	p.cache.Set(ctx, key, estimate)
	return estimate, nil
}

func (p *ProviderEstimator) fetchRoute(ctx context.Context, from, to domain.Coordinates, mode domain.TravelMode) (services.TravelEstimate, error) {
	select {
	case p.semaphore <- struct{}{}:
		defer func() { <-p.semaphore }()
	case <-ctx.Done():
		return services.TravelEstimate{}, ctx.Err()
	}

	query := url.Values{}
	query.Set("origin", fmt.Sprintf("%f,%f", from.Lat, from.Lng))
	query.Set("destination", fmt.Sprintf("%f,%f", to.Lat, to.Lng))
	query.Set("mode", string(mode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.config.BaseURL+"/v1/directions?"+query.Encode(), nil)
	if err != nil {
		return services.TravelEstimate{}, err
	}
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "KakaoAK "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return services.TravelEstimate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.TravelEstimate{}, fmt.Errorf("map provider returned status %d", resp.StatusCode)
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return services.TravelEstimate{}, fmt.Errorf("decoding route response: %w", err)
	}
	if route.DurationSeconds < 0 {
		return services.TravelEstimate{}, errors.New("map provider returned negative duration")
	}

	return services.TravelEstimate{
		Minutes:      domain.RoundUpToGranularity((route.DurationSeconds + 59) / 60),
		DistanceText: route.DistanceText,
	}, nil
}
