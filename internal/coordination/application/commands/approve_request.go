package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// staleRejectReason is the system-generated reason recorded when an approval
// loses the optimistic check.
const staleRejectReason = "요청 이후 일정이 변경되어 자동 거절되었습니다."

// ApproveRequestCommand approves a pending yield request.
type ApproveRequestCommand struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
}

// ApproveRequestHandler handles the ApproveRequestCommand.
type ApproveRequestHandler struct {
	roomRepo    domain.RoomRepository
	profileRepo domain.ProfileRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	planner     *services.ExchangePlanner
	locks       *services.RoomLocks
}

// NewApproveRequestHandler creates a new ApproveRequestHandler.
func NewApproveRequestHandler(
	roomRepo domain.RoomRepository,
	profileRepo domain.ProfileRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	planner *services.ExchangePlanner,
	locks *services.RoomLocks,
) *ApproveRequestHandler {
	return &ApproveRequestHandler{
		roomRepo:    roomRepo,
		profileRepo: profileRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		planner:     planner,
		locks:       locks,
	}
}

// Handle executes the ApproveRequestCommand. If the slots the request was
// built against changed in the meantime, the request is auto-rejected and a
// stale_request rejection is returned.
func (h *ApproveRequestHandler) Handle(ctx context.Context, cmd ApproveRequestCommand) (services.ExchangeOutcome, error) {
	located, err := h.roomRepo.FindByRequestID(ctx, cmd.RequestID)
	if err != nil {
		return services.ExchangeOutcome{}, err
	}
	if located == nil {
		return services.ExchangeOutcome{}, domain.ErrRequestNotFound
	}

	unlock := h.locks.Lock(located.ID())
	defer unlock()

	var outcome services.ExchangeOutcome
	var stale *domain.RejectionError

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
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
		if !req.IsPending() {
			return domain.ErrRequestNotPending
		}

		profiles, err := h.profileRepo.FindByUserIDs(txCtx, memberIDs(room))
		if err != nil {
			return err
		}

		outcome, err = h.planner.ApplyApproval(txCtx, room, profiles, req)
		if rej, isRej := domain.AsRejection(err); isRej && rej.Reason == domain.ReasonStaleRequest {
			// Commit the auto-rejection, then surface the 409 to the caller.
			stale = rej
			if err := req.Reject(staleRejectReason); err != nil {
				return err
			}
			room.AddDomainEvent(domain.NewRequestResolvedEvent(room.ID(), req, staleRejectReason))
			if err := h.roomRepo.Save(txCtx, room); err != nil {
				return err
			}
			entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivityResolution, staleRejectReason)
			if err := h.activityLog.Append(txCtx, entry); err != nil {
				return err
			}
			return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
		}
		if err != nil {
			return err
		}

		if err := req.Approve(); err != nil {
			return err
		}
		room.AddDomainEvent(domain.NewRequestResolvedEvent(room.ID(), req, ""))
		room.AddDomainEvent(domain.NewScheduleUpdatedEvent(room.ID(), cmd.UserID, outcome.AffectedDates, "approval"))

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivityResolution, outcome.Message)
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
	if err != nil {
		return outcome, err
	}
	if stale != nil {
		return services.ExchangeOutcome{}, stale
	}
	return outcome, nil
}
