package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// CancelRequestCommand withdraws a pending yield request.
type CancelRequestCommand struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
}

// CancelRequestHandler handles the CancelRequestCommand.
type CancelRequestHandler struct {
	roomRepo    domain.RoomRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	locks       *services.RoomLocks
}

// NewCancelRequestHandler creates a new CancelRequestHandler.
func NewCancelRequestHandler(
	roomRepo domain.RoomRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locks *services.RoomLocks,
) *CancelRequestHandler {
	return &CancelRequestHandler{
		roomRepo:    roomRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		locks:       locks,
	}
}

// Handle executes the CancelRequestCommand. Only the requester may cancel.
func (h *CancelRequestHandler) Handle(ctx context.Context, cmd CancelRequestCommand) error {
	located, err := h.roomRepo.FindByRequestID(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if located == nil {
		return domain.ErrRequestNotFound
	}

	unlock := h.locks.Lock(located.ID())
	defer unlock()

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		room, err := h.roomRepo.FindByID(txCtx, located.ID())
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		req, ok := room.RequestByID(cmd.RequestID)
		if !ok {
			return domain.ErrRequestNotFound
		}
		if req.RequesterID() != cmd.UserID {
			return domain.ErrNotAuthorized
		}

		if err := req.Cancel(); err != nil {
			return err
		}
		room.AddDomainEvent(domain.NewRequestResolvedEvent(room.ID(), req, ""))

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivityResolution, "양보 요청을 취소했습니다.")
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
}
