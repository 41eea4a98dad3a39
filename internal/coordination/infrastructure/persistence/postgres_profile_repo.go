package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// PostgresProfileRepository reads the user-profile projection. Profiles are
// owned by the account system; the coordination core only selects, except for
// the projection sync performed by Save.
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileRepository{pool: pool, logger: logger}
}

// Save upserts a profile projection row.
func (r *PostgresProfileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	calendars, err := json.Marshal(calendarsToDocs(profile))
	if err != nil {
		return fmt.Errorf("marshaling profile calendars: %w", err)
	}

	_, err = exec.Exec(ctx, `
		INSERT INTO user_profiles (user_id, name, address, lat, lng, calendars, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			calendars = EXCLUDED.calendars,
			updated_at = NOW()`,
		profile.ID(), profile.Name(), profile.Address(),
		profile.Coords().Lat, profile.Coords().Lng, calendars,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// FindByUserID loads one profile, nil when absent.
func (r *PostgresProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	var (
		name, address string
		lat, lng      float64
		calendarsRaw  []byte
	)
	err := exec.QueryRow(ctx, `
		SELECT name, address, lat, lng, calendars
		FROM user_profiles WHERE user_id = $1`, userID).Scan(
		&name, &address, &lat, &lng, &calendarsRaw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var calendars profileCalendars
	if err := json.Unmarshal(calendarsRaw, &calendars); err != nil {
		return nil, fmt.Errorf("unmarshaling profile calendars: %w", err)
	}
	return docsToProfile(userID, name, address, lat, lng, calendars), nil
}

// FindByUserIDs loads profiles for a set of users, keyed by user id. Missing
// users are simply absent from the map.
func (r *PostgresProfileRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserProfile, error) {
	profiles := make(map[uuid.UUID]*domain.UserProfile, len(userIDs))
	for _, id := range userIDs {
		profile, err := r.FindByUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			profiles[id] = profile
		}
	}
	return profiles, nil
}
