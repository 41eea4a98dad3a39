package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// SQLiteActivityLogRepository is the local-mode activity feed store.
type SQLiteActivityLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteActivityLogRepository creates a new SQLiteActivityLogRepository.
func NewSQLiteActivityLogRepository(db *sql.DB, logger *slog.Logger) *SQLiteActivityLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteActivityLogRepository{db: db, logger: logger}
}

// Append inserts one feed entry.
func (r *SQLiteActivityLogRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO activity_logs (id, room_id, actor_id, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID().String(), entry.RoomID().String(), entry.ActorID().String(),
		string(entry.Kind()), entry.Detail(), entry.CreatedAt().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending activity log: %w", err)
	}
	return nil
}

// ListByRoom returns the newest entries for a room, newest first.
func (r *SQLiteActivityLogRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.ActivityLog, error) {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, actor_id, kind, detail, created_at
		FROM activity_logs
		WHERE room_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, roomID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityLog
	for rows.Next() {
		var (
			idRaw, actorRaw string
			kind, detail    string
			createdAtRaw    string
		)
		if err := rows.Scan(&idRaw, &actorRaw, &kind, &detail, &createdAtRaw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, err
		}
		actorID, err := uuid.Parse(actorRaw)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtRaw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.RehydrateActivityLog(id, roomID, actorID, domain.ActivityKind(kind), detail, createdAt))
	}
	return entries, rows.Err()
}
