package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// ConfirmScheduleCommand locks in a room's proposed weekly schedule.
type ConfirmScheduleCommand struct {
	RoomID uuid.UUID
	UserID uuid.UUID
}

// ConfirmScheduleHandler handles the ConfirmScheduleCommand.
type ConfirmScheduleHandler struct {
	roomRepo    domain.RoomRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	locks       *services.RoomLocks
}

// NewConfirmScheduleHandler creates a new ConfirmScheduleHandler.
func NewConfirmScheduleHandler(
	roomRepo domain.RoomRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locks *services.RoomLocks,
) *ConfirmScheduleHandler {
	return &ConfirmScheduleHandler{
		roomRepo:    roomRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		locks:       locks,
	}
}

// Handle executes the ConfirmScheduleCommand.
func (h *ConfirmScheduleHandler) Handle(ctx context.Context, cmd ConfirmScheduleCommand) error {
	unlock := h.locks.Lock(cmd.RoomID)
	defer unlock()

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		room, err := h.roomRepo.FindByID(txCtx, cmd.RoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if !room.IsOwner(cmd.UserID) {
			return domain.ErrNotAuthorized
		}

		if err := room.Confirm(time.Now()); err != nil {
			return err
		}

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivityConfirm, "주간 일정을 확정했습니다.")
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
}
