package commands

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// CreateRoomCommand contains the data needed to create a coordination room.
type CreateRoomCommand struct {
	OwnerID uuid.UUID
	Name    string
}

// CreateRoomHandler handles the CreateRoomCommand.
type CreateRoomHandler struct {
	roomRepo   domain.RoomRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateRoomHandler creates a new CreateRoomHandler.
func NewCreateRoomHandler(roomRepo domain.RoomRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateRoomHandler {
	return &CreateRoomHandler{roomRepo: roomRepo, outboxRepo: outboxRepo, uow: uow}
}

// Handle executes the CreateRoomCommand and returns the new room.
func (h *CreateRoomHandler) Handle(ctx context.Context, cmd CreateRoomCommand) (*domain.Room, error) {
	room := domain.NewRoom(cmd.Name, cmd.OwnerID, newInviteCode(), domain.PaletteColor(0))

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
