package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// approvalMonday is a fixed reference Monday.
var approvalMonday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)

type approvalFixture struct {
	room      *domain.Room
	req       *domain.ExchangeRequest
	requester *domain.UserProfile
	occupant  *domain.UserProfile
	profiles  map[uuid.UUID]*domain.UserProfile
}

// newApprovalFixture builds a room where the requester holds Monday 10:00 and
// the occupant holds Wednesday 10:00, with a pending yield request for the
// occupant's window.
func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	ownerID := uuid.New()
	requester := domain.NewUserProfile(uuid.New(), "민지", "", domain.Coordinates{}, nil, nil, nil)
	occupant := domain.NewUserProfile(uuid.New(), "하준", "", domain.Coordinates{}, nil, nil, nil)

	room := domain.NewRoom("우리 모임", ownerID, "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(requester.ID(), domain.PaletteColor(1)))
	require.NoError(t, room.AddMember(occupant.ID(), domain.PaletteColor(2)))

	wednesday := approvalMonday.AddDate(0, 0, 2)

	requesterSlot, err := domain.NewClassSlot(requester.ID(), approvalMonday, 600, 660, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, room.AddSlot(requesterSlot))

	occupantSlot, err := domain.NewClassSlot(occupant.ID(), wednesday, 600, 660, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, room.AddSlot(occupantSlot))

	req := domain.NewExchangeRequest(room.ID(), requester.ID(), occupant.ID(), domain.RequestTimeChange,
		[]domain.SlotSnapshot{{Date: domain.DateKey(approvalMonday), Start: 600, End: 660, Subject: domain.SubjectAutoAssigned}},
		domain.TargetSlotRef{Date: domain.DateKey(wednesday), Start: 600, End: 660},
		"수요일로 바꿔주세요")
	room.AddRequest(req)

	return &approvalFixture{
		room:      room,
		req:       req,
		requester: requester,
		occupant:  occupant,
		profiles: map[uuid.UUID]*domain.UserProfile{
			requester.ID(): requester,
			occupant.ID():  occupant,
		},
	}
}

func newApprovePlanner() *services.ExchangePlanner {
	recomputer := services.NewTravelRecomputer(services.NewHaversineEstimator(), services.MissingCoordsSkip, nil)
	return services.NewExchangePlanner(recomputer, nil, nil)
}

func TestApproveRequestHandler_Handle(t *testing.T) {
	t.Run("successfully approves a request", func(t *testing.T) {
		f := newApprovalFixture(t)

		repo := new(mockRoomRepo)
		profileRepo := new(mockProfileRepo)
		activityRepo := new(mockActivityLogRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewApproveRequestHandler(repo, profileRepo, activityRepo, outboxRepo, uow,
			newApprovePlanner(), services.NewRoomLocks())

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		repo.On("FindByRequestID", ctx, f.req.ID()).Return(f.room, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, f.room.ID()).Return(f.room, nil)
		profileRepo.On("FindByUserIDs", txCtx, mock.Anything).Return(f.profiles, nil)
		repo.On("Save", txCtx, f.room).Return(nil)
		activityRepo.On("Append", txCtx, mock.AnythingOfType("*domain.ActivityLog")).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		outcome, err := handler.Handle(ctx, ApproveRequestCommand{RequestID: f.req.ID(), UserID: f.occupant.ID()})

		require.NoError(t, err)
		assert.True(t, outcome.ImmediateSwap)
		assert.Equal(t, domain.RequestApproved, f.req.Status())

		// The two sides swapped windows.
		wednesday := approvalMonday.AddDate(0, 0, 2)
		assert.Len(t, f.room.UserSlotsOn(f.requester.ID(), wednesday), 1)
		assert.Len(t, f.room.UserSlotsOn(f.occupant.ID(), approvalMonday), 1)

		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("auto-rejects a stale request and surfaces the rejection", func(t *testing.T) {
		f := newApprovalFixture(t)

		// The requester's slot moved after the request was created.
		stale := f.room.UserSlotsOn(f.requester.ID(), approvalMonday)
		require.Len(t, stale, 1)
		f.room.RemoveSlots(stale[0].ID())

		repo := new(mockRoomRepo)
		profileRepo := new(mockProfileRepo)
		activityRepo := new(mockActivityLogRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewApproveRequestHandler(repo, profileRepo, activityRepo, outboxRepo, uow,
			newApprovePlanner(), services.NewRoomLocks())

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		repo.On("FindByRequestID", ctx, f.req.ID()).Return(f.room, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, f.room.ID()).Return(f.room, nil)
		profileRepo.On("FindByUserIDs", txCtx, mock.Anything).Return(f.profiles, nil)
		repo.On("Save", txCtx, f.room).Return(nil)
		activityRepo.On("Append", txCtx, mock.AnythingOfType("*domain.ActivityLog")).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		_, err := handler.Handle(ctx, ApproveRequestCommand{RequestID: f.req.ID(), UserID: f.occupant.ID()})

		require.Error(t, err)
		rej, ok := domain.AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, domain.ReasonStaleRequest, rej.Reason)

		// The auto-rejection is committed, not rolled back.
		assert.Equal(t, domain.RequestRejected, f.req.Status())
		assert.Equal(t, staleRejectReason, f.req.RejectReason())

		uow.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("fails when approver is not the target user", func(t *testing.T) {
		f := newApprovalFixture(t)

		repo := new(mockRoomRepo)
		profileRepo := new(mockProfileRepo)
		activityRepo := new(mockActivityLogRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewApproveRequestHandler(repo, profileRepo, activityRepo, outboxRepo, uow,
			newApprovePlanner(), services.NewRoomLocks())

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		repo.On("FindByRequestID", ctx, f.req.ID()).Return(f.room, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByID", txCtx, f.room.ID()).Return(f.room, nil)

		_, err := handler.Handle(ctx, ApproveRequestCommand{RequestID: f.req.ID(), UserID: f.requester.ID()})

		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
		assert.True(t, f.req.IsPending())

		uow.AssertExpectations(t)
	})

	t.Run("fails when request is already resolved", func(t *testing.T) {
		f := newApprovalFixture(t)
		require.NoError(t, f.req.Cancel())

		repo := new(mockRoomRepo)
		profileRepo := new(mockProfileRepo)
		activityRepo := new(mockActivityLogRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewApproveRequestHandler(repo, profileRepo, activityRepo, outboxRepo, uow,
			newApprovePlanner(), services.NewRoomLocks())

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		repo.On("FindByRequestID", ctx, f.req.ID()).Return(f.room, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByID", txCtx, f.room.ID()).Return(f.room, nil)

		_, err := handler.Handle(ctx, ApproveRequestCommand{RequestID: f.req.ID(), UserID: f.occupant.ID()})

		assert.ErrorIs(t, err, domain.ErrRequestNotPending)

		uow.AssertExpectations(t)
	})

	t.Run("fails when request does not exist", func(t *testing.T) {
		repo := new(mockRoomRepo)
		profileRepo := new(mockProfileRepo)
		activityRepo := new(mockActivityLogRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewApproveRequestHandler(repo, profileRepo, activityRepo, outboxRepo, uow,
			newApprovePlanner(), services.NewRoomLocks())

		ctx := context.Background()
		requestID := uuid.New()
		repo.On("FindByRequestID", ctx, requestID).Return(nil, nil)

		_, err := handler.Handle(ctx, ApproveRequestCommand{RequestID: requestID, UserID: uuid.New()})

		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
