package queries

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// activityFeedLimit caps the entries returned with a room read.
const activityFeedLimit = 50

// GetRoomQuery reads a room with its slots, requests and recent activity.
type GetRoomQuery struct {
	RoomID uuid.UUID
	UserID uuid.UUID
}

// GetRoomResult is the read model returned to the API layer.
type GetRoomResult struct {
	Room     *domain.Room
	Activity []*domain.ActivityLog
}

// GetRoomHandler handles the GetRoomQuery.
type GetRoomHandler struct {
	roomRepo    domain.RoomRepository
	activityLog domain.ActivityLogRepository
	locks       *services.RoomLocks
}

// NewGetRoomHandler creates a new GetRoomHandler.
func NewGetRoomHandler(roomRepo domain.RoomRepository, activityLog domain.ActivityLogRepository, locks *services.RoomLocks) *GetRoomHandler {
	return &GetRoomHandler{roomRepo: roomRepo, activityLog: activityLog, locks: locks}
}

// Handle executes the GetRoomQuery under the room's read lock so the caller
// never sees a half-recomputed date.
func (h *GetRoomHandler) Handle(ctx context.Context, query GetRoomQuery) (GetRoomResult, error) {
	unlock := h.locks.RLock(query.RoomID)
	defer unlock()

	room, err := h.roomRepo.FindByID(ctx, query.RoomID)
	if err != nil {
		return GetRoomResult{}, err
	}
	if room == nil {
		return GetRoomResult{}, domain.ErrRoomNotFound
	}
	if !room.IsMember(query.UserID) {
		return GetRoomResult{}, domain.ErrNotMember
	}

	activity, err := h.activityLog.ListByRoom(ctx, query.RoomID, activityFeedLimit)
	if err != nil {
		return GetRoomResult{}, err
	}
	return GetRoomResult{Room: room, Activity: activity}, nil
}
