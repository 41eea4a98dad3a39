package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// RunScheduleCommand triggers a weekly scheduling run for a room.
type RunScheduleCommand struct {
	RoomID    uuid.UUID
	UserID    uuid.UUID
	WeekStart time.Time
}

// RunScheduleHandler handles the RunScheduleCommand.
type RunScheduleHandler struct {
	roomRepo    domain.RoomRepository
	profileRepo domain.ProfileRepository
	activityLog domain.ActivityLogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	scheduler   *services.Scheduler
	locks       *services.RoomLocks
}

// NewRunScheduleHandler creates a new RunScheduleHandler.
func NewRunScheduleHandler(
	roomRepo domain.RoomRepository,
	profileRepo domain.ProfileRepository,
	activityLog domain.ActivityLogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	scheduler *services.Scheduler,
	locks *services.RoomLocks,
) *RunScheduleHandler {
	return &RunScheduleHandler{
		roomRepo:    roomRepo,
		profileRepo: profileRepo,
		activityLog: activityLog,
		outboxRepo:  outboxRepo,
		uow:         uow,
		scheduler:   scheduler,
		locks:       locks,
	}
}

// Handle executes the RunScheduleCommand and returns the run result.
func (h *RunScheduleHandler) Handle(ctx context.Context, cmd RunScheduleCommand) (services.ScheduleResult, error) {
	unlock := h.locks.Lock(cmd.RoomID)
	defer unlock()

	var result services.ScheduleResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
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

		profiles, err := h.profileRepo.FindByUserIDs(txCtx, memberIDs(room))
		if err != nil {
			return err
		}

		result, err = h.scheduler.ScheduleWeek(txCtx, room, profiles, cmd.WeekStart)
		if err != nil {
			return err
		}

		room.AddDomainEvent(domain.NewSuggestionUpdatedEvent(room.ID(), result.WeekStart, len(result.Placed)))
		room.AddDomainEvent(domain.NewScheduleUpdatedEvent(room.ID(), cmd.UserID, result.AffectedDates(), "schedule"))

		if err := h.roomRepo.Save(txCtx, room); err != nil {
			return err
		}
		entry := domain.NewActivityLog(room.ID(), cmd.UserID, domain.ActivitySchedule,
			fmt.Sprintf("주간 일정을 생성했습니다. (%d개 배정)", len(result.Placed)))
		if err := h.activityLog.Append(txCtx, entry); err != nil {
			return err
		}
		return saveEventsToOutbox(txCtx, h.outboxRepo, room, cmd.UserID)
	})
	return result, err
}

func memberIDs(room *domain.Room) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(room.Members()))
	for _, m := range room.Members() {
		ids = append(ids, m.UserID())
	}
	return ids
}
