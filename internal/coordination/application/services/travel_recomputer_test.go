package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a fixed reference Monday shared across the service tests.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)

// stubEstimator returns a fixed travel time for any distinct pair of
// coordinates.
type stubEstimator struct {
	minutes int
	err     error
}

func (s *stubEstimator) Estimate(_ context.Context, from, to domain.Coordinates, mode domain.TravelMode) (TravelEstimate, error) {
	if s.err != nil {
		return TravelEstimate{}, s.err
	}
	if mode == domain.TravelNone || from == to {
		return TravelEstimate{}, nil
	}
	return TravelEstimate{Minutes: s.minutes, DistanceText: "약 3.0km"}, nil
}

func testProfile(name string, coords domain.Coordinates, schedule []domain.ScheduleEntry) *domain.UserProfile {
	return domain.NewUserProfile(uuid.New(), name, "", coords, schedule, nil, nil)
}

func profileMap(ps ...*domain.UserProfile) map[uuid.UUID]*domain.UserProfile {
	m := make(map[uuid.UUID]*domain.UserProfile, len(ps))
	for _, p := range ps {
		m[p.ID()] = p
	}
	return m
}

func TestSimulateDateDerivesTravel(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)
	user2 := testProfile("하준", domain.Coordinates{Lat: 37.52, Lng: 127.02}, nil)

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	// Fed out of order to exercise the sort.
	sim, err := r.SimulateDate(context.Background(), domain.DefaultRoomSettings(),
		profileMap(owner, user1, user2), owner.ID(), domain.TravelTransit, monday,
		[]SimSlot{
			{ID: uuid.New(), UserID: user2.ID(), Start: 660, End: 720},
			{ID: uuid.New(), UserID: user1.ID(), Start: 600, End: 660},
		})
	require.NoError(t, err)

	require.Len(t, sim.Slots, 2)
	assert.Equal(t, user1.ID(), sim.Slots[0].UserID)
	assert.Equal(t, user2.ID(), sim.Slots[1].UserID)

	require.Len(t, sim.Travel, 2)

	// First leg departs from the owner.
	assert.Equal(t, user1.ID(), sim.Travel[0].UserID)
	assert.Equal(t, 580, sim.Travel[0].Start)
	assert.Equal(t, 600, sim.Travel[0].End)
	assert.Equal(t, "방장", sim.Travel[0].FromName)
	assert.Equal(t, "민지", sim.Travel[0].ToName)

	// Second leg departs from the previous slot's user.
	assert.Equal(t, 640, sim.Travel[1].Start)
	assert.Equal(t, 660, sim.Travel[1].End)
	assert.Equal(t, "민지", sim.Travel[1].FromName)
	assert.Equal(t, "하준", sim.Travel[1].ToName)
}

func TestSimulateDateModeNone(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	sim, err := r.SimulateDate(context.Background(), domain.DefaultRoomSettings(),
		profileMap(owner, user1), owner.ID(), domain.TravelNone, monday,
		[]SimSlot{{ID: uuid.New(), UserID: user1.ID(), Start: 600, End: 660}})
	require.NoError(t, err)
	assert.Empty(t, sim.Travel)
}

func TestSimulateDateBlockedShift(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	settings := domain.DefaultRoomSettings()
	settings.BlockedTimes = []domain.BlockedTime{{Start: 590, End: 610, Label: "아침 회의"}}

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	slotID := uuid.New()
	sim, err := r.SimulateDate(context.Background(), settings,
		profileMap(owner, user1), owner.ID(), domain.TravelTransit, monday,
		[]SimSlot{{ID: slotID, UserID: user1.ID(), Start: 600, End: 660}})
	require.NoError(t, err)

	// The 09:40~10:00 travel window hits the block, so everything shifts
	// past it: travel 10:10~10:30, class 10:30~11:30.
	require.Len(t, sim.Travel, 1)
	assert.Equal(t, 610, sim.Travel[0].Start)
	assert.Equal(t, 630, sim.Travel[0].End)
	assert.Equal(t, 630, sim.Slots[0].Start)
	assert.Equal(t, 690, sim.Slots[0].End)

	shifted := sim.ShiftedSlots([]SimSlot{{ID: slotID, UserID: user1.ID(), Start: 600, End: 660}})
	require.Len(t, shifted, 1)
	assert.Equal(t, domain.TimeRange{Start: 630, End: 690}, shifted[slotID])
}

func TestSimulateDateRunsOutOfDay(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	// The absolute evening block keeps pushing the slot until the travel
	// window falls off the end of the day.
	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	_, err := r.SimulateDate(context.Background(), domain.DefaultRoomSettings(),
		profileMap(owner, user1), owner.ID(), domain.TravelTransit, monday,
		[]SimSlot{{ID: uuid.New(), UserID: user1.ID(), Start: 1010, End: 1070}})
	require.Error(t, err)

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonTravelConflict, rej.Reason)
}

func TestSimulateDateMissingCoords(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{}, nil)
	slots := []SimSlot{{ID: uuid.New(), UserID: user1.ID(), Start: 600, End: 660}}

	skip := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)
	sim, err := skip.SimulateDate(context.Background(), domain.DefaultRoomSettings(),
		profileMap(owner, user1), owner.ID(), domain.TravelTransit, monday, slots)
	require.NoError(t, err)
	assert.Empty(t, sim.Travel)

	reject := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsReject, nil)
	_, err = reject.SimulateDate(context.Background(), domain.DefaultRoomSettings(),
		profileMap(owner, user1), owner.ID(), domain.TravelTransit, monday, slots)
	require.Error(t, err)

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonMissingCoordinates, rej.Reason)
}

func TestRecomputeRebuildsTravelSlots(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(user1.ID(), domain.PaletteColor(1)))
	room.SetTravelMode(domain.TravelTransit)

	slot, err := domain.NewClassSlot(user1.ID(), monday, 600, 660, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, room.AddSlot(slot))

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)
	profiles := profileMap(owner, user1)

	shifted, err := r.Recompute(context.Background(), room, profiles, monday, nil)
	require.NoError(t, err)
	assert.Empty(t, shifted)

	travel := room.TravelSlotsOn(monday)
	require.Len(t, travel, 1)
	assert.Equal(t, 580, travel[0].Start())
	assert.Equal(t, 600, travel[0].End())
	assert.Equal(t, user1.ID(), travel[0].UserID())

	// Recomputing again replaces rather than duplicates.
	_, err = r.Recompute(context.Background(), room, profiles, monday, nil)
	require.NoError(t, err)
	assert.Len(t, room.TravelSlotsOn(monday), 1)
}

func TestRecomputeBlockedShiftMovesStoredSlot(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(user1.ID(), domain.PaletteColor(1)))
	room.SetTravelMode(domain.TravelTransit)

	settings := room.Settings()
	settings.BlockedTimes = []domain.BlockedTime{{Start: 590, End: 610, Label: "아침 회의"}}
	room.UpdateSettings(settings)

	slot, err := domain.NewClassSlot(user1.ID(), monday, 600, 660, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, room.AddSlot(slot))

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	shifted, err := r.Recompute(context.Background(), room, profileMap(owner, user1), monday, nil)
	require.NoError(t, err)
	require.Len(t, shifted, 1)
	assert.Equal(t, domain.TimeRange{Start: 630, End: 690}, shifted[slot.ID()])

	assert.Equal(t, 630, slot.Start())
	assert.Equal(t, 690, slot.End())

	travel := room.TravelSlotsOn(monday)
	require.Len(t, travel, 1)
	assert.Equal(t, 610, travel[0].Start())
	assert.Equal(t, 630, travel[0].End())
}

func TestRecomputeModeNoneRemovesTravel(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00}, nil)
	user1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01}, nil)

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(user1.ID(), domain.PaletteColor(1)))

	stale, err := domain.NewTravelSlot(user1.ID(), monday, 580, 600,
		domain.TravelInfo{Mode: domain.TravelTransit}, "")
	require.NoError(t, err)
	room.ForceAddSlot(stale)

	r := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)

	shifted, err := r.Recompute(context.Background(), room, profileMap(owner, user1), monday, nil)
	require.NoError(t, err)
	assert.Empty(t, shifted)
	assert.Empty(t, room.TravelSlotsOn(monday))
}
