package domain

import (
	"context"

	"github.com/google/uuid"
)

// RoomRepository persists room aggregates, including their slots and
// requests.
type RoomRepository interface {
	Save(ctx context.Context, room *Room) error
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)
	FindByInviteCode(ctx context.Context, code string) (*Room, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*Room, error)
	FindByMember(ctx context.Context, userID uuid.UUID) ([]*Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository persists user scheduling profiles.
type ProfileRepository interface {
	Save(ctx context.Context, profile *UserProfile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*UserProfile, error)
}

// ActivityLogRepository appends and reads the per-room activity feed.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *ActivityLog) error
	ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*ActivityLog, error)
}
