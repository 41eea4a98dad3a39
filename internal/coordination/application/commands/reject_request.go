package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// RejectRequestCommand rejects a pending yield request.
type RejectRequestCommand struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
	Reason    string
}

// RejectRequestHandler handles the RejectRequestCommand.
type RejectRequestHandler struct {
	roomRepo    domain.RoomRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	locks       *services.RoomLocks
}

// NewRejectRequestHandler creates a new RejectRequestHandler.
func NewRejectRequestHandler(
	roomRepo domain.RoomRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locks *services.RoomLocks,
) *RejectRequestHandler {
	return &RejectRequestHandler{
		roomRepo:    roomRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		locks:       locks,
	}
}

// Handle executes the RejectRequestCommand. No slots are mutated.
func (h *RejectRequestHandler) Handle(ctx context.Context, cmd RejectRequestCommand) error {
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
		if req.TargetUserID() != cmd.UserID {
			return domain.ErrNotAuthorized
		}

		reason := cmd.Reason
		if reason == "" {
			reason = "요청이 거절되었습니다."
		}
		if err := req.Reject(reason); err != nil {
			return err
		}
		room.AddDomainEvent(domain.NewRequestResolvedEvent(room.ID(), req, reason))

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivityResolution, "양보 요청을 거절했습니다.")
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
}
