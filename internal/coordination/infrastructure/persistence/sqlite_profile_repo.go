package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// SQLiteProfileRepository is the local-mode profile projection store.
type SQLiteProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteProfileRepository creates a new SQLiteProfileRepository.
func NewSQLiteProfileRepository(db *sql.DB, logger *slog.Logger) *SQLiteProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteProfileRepository{db: db, logger: logger}
}

// Save upserts a profile projection row.
func (r *SQLiteProfileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)

	calendars, err := json.Marshal(calendarsToDocs(profile))
	if err != nil {
		return fmt.Errorf("marshaling profile calendars: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, name, address, lat, lng, calendars, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			lat = excluded.lat,
			lng = excluded.lng,
			calendars = excluded.calendars,
			updated_at = excluded.updated_at`,
		profile.ID().String(), profile.Name(), profile.Address(),
		profile.Coords().Lat, profile.Coords().Lng, string(calendars),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// FindByUserID loads one profile, nil when absent.
func (r *SQLiteProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)

	var (
		name, address string
		lat, lng      float64
		calendarsRaw  string
	)
	err := q.QueryRowContext(ctx, `
		SELECT name, address, lat, lng, calendars
		FROM user_profiles WHERE user_id = ?`, userID.String()).Scan(
		&name, &address, &lat, &lng, &calendarsRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var calendars profileCalendars
	if err := json.Unmarshal([]byte(calendarsRaw), &calendars); err != nil {
		return nil, fmt.Errorf("unmarshaling profile calendars: %w", err)
	}
	return docsToProfile(userID, name, address, lat, lng, calendars), nil
}

// FindByUserIDs loads profiles for a set of users, keyed by user id.
func (r *SQLiteProfileRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserProfile, error) {
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
