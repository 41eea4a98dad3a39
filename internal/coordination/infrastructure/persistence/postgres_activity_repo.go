package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// PostgresActivityLogRepository appends to the per-room activity feed.
type PostgresActivityLogRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresActivityLogRepository creates a new PostgresActivityLogRepository.
func NewPostgresActivityLogRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresActivityLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityLogRepository{pool: pool, logger: logger}
}

// Append inserts one feed entry.
func (r *PostgresActivityLogRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, `
		INSERT INTO activity_logs (id, room_id, actor_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID(), entry.RoomID(), entry.ActorID(), string(entry.Kind()), entry.Detail(), entry.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("appending activity log: %w", err)
	}
	return nil
}

// ListByRoom returns the newest entries for a room, newest first.
func (r *PostgresActivityLogRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.ActivityLog, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, `
		SELECT id, actor_id, kind, detail, created_at
		FROM activity_logs
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityLog
	for rows.Next() {
		var (
			id, actorID  uuid.UUID
			kind, detail string
			createdAt    time.Time
		)
		if err := rows.Scan(&id, &actorID, &kind, &detail, &createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, domain.RehydrateActivityLog(id, roomID, actorID, domain.ActivityKind(kind), detail, createdAt))
	}
	return entries, rows.Err()
}
