package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// SmartExchangeCommand applies a parsed exchange intent for a member.
type SmartExchangeCommand struct {
	RoomID uuid.UUID
	UserID uuid.UUID
	Intent domain.ParsedIntent
}

// SmartExchangeHandler handles the SmartExchangeCommand.
type SmartExchangeHandler struct {
	roomRepo    domain.RoomRepository
	profileRepo domain.ProfileRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	planner     *services.ExchangePlanner
	locks       *services.RoomLocks
}

// NewSmartExchangeHandler creates a new SmartExchangeHandler.
func NewSmartExchangeHandler(
	roomRepo domain.RoomRepository,
	profileRepo domain.ProfileRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	planner *services.ExchangePlanner,
	locks *services.RoomLocks,
) *SmartExchangeHandler {
	return &SmartExchangeHandler{
		roomRepo:    roomRepo,
		profileRepo: profileRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		planner:     planner,
		locks:       locks,
	}
}

// Handle executes the SmartExchangeCommand. Rejections still produce an
// activity entry so members can see why a move was refused.
func (h *SmartExchangeHandler) Handle(ctx context.Context, cmd SmartExchangeCommand) (services.ExchangeOutcome, error) {
	unlock := h.locks.Lock(cmd.RoomID)
	defer unlock()

	var outcome services.ExchangeOutcome
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		room, err := h.roomRepo.FindByID(txCtx, cmd.RoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if !room.IsMember(cmd.UserID) {
			return domain.ErrNotMember
		}

		profiles, err := h.profileRepo.FindByUserIDs(txCtx, memberIDs(room))
		if err != nil {
			return err
		}

		outcome, err = h.planner.Apply(txCtx, room, profiles, cmd.UserID, cmd.Intent)
		if err != nil {
			return err
		}
		if !outcome.Mutated {
			return nil
		}

		kind := domain.ActivityExchange
		if outcome.NeedsApproval {
			kind = domain.ActivityRequest
			room.AddDomainEvent(domain.NewRequestCreatedEvent(room.ID(), outcome.Request))
		} else {
			room.AddDomainEvent(domain.NewScheduleUpdatedEvent(room.ID(), cmd.UserID, outcome.AffectedDates, "exchange"))
		}

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, kind, outcome.Message)
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})

	if rej, ok := domain.AsRejection(err); ok {
		entry := domain.NewActivityLog(cmd.RoomID, cmd.UserID, domain.ActivityExchange, rej.Message)
		_ = h.activityLog.Append(ctx, entry)
	}
	return outcome, err
}
