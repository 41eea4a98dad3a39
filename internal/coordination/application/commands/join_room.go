package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// JoinRoomCommand joins a user to a room via its invite code.
type JoinRoomCommand struct {
	UserID     uuid.UUID
	InviteCode string
}

// JoinRoomHandler handles the JoinRoomCommand.
type JoinRoomHandler struct {
	roomRepo   domain.RoomRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *services.RoomLocks
}

// NewJoinRoomHandler creates a new JoinRoomHandler.
func NewJoinRoomHandler(roomRepo domain.RoomRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *services.RoomLocks) *JoinRoomHandler {
	return &JoinRoomHandler{roomRepo: roomRepo, outboxRepo: outboxRepo, uow: uow, locks: locks}
}

// Handle executes the JoinRoomCommand and returns the joined room.
func (h *JoinRoomHandler) Handle(ctx context.Context, cmd JoinRoomCommand) (*domain.Room, error) {
	located, err := h.roomRepo.FindByInviteCode(ctx, cmd.InviteCode)
	if err != nil {
		return nil, err
	}
	if located == nil {
		return nil, domain.ErrRoomNotFound
	}

	unlock := h.locks.Lock(located.ID())
	defer unlock()

	var room *domain.Room
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		room, err = h.roomRepo.FindByID(txCtx, located.ID())
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if err := room.AddMember(cmd.UserID, domain.PaletteColor(len(room.Members()))); err != nil {
			return err
		}
		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}
