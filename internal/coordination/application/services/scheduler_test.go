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

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

func weekdaySchedule(days []time.Weekday, start, end int) []domain.ScheduleEntry {
	entries := make([]domain.ScheduleEntry, 0, len(days))
	for _, d := range days {
		entries = append(entries, domain.ScheduleEntry{DayOfWeek: d, Start: start, End: end, Priority: 2})
	}
	return entries
}

func newScheduler() *Scheduler {
	recomputer := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)
	return NewScheduler(recomputer, nil)
}

func TestStartOfWeek(t *testing.T) {
	assert.Equal(t, monday, StartOfWeek(monday))
	assert.Equal(t, monday, StartOfWeek(monday.AddDate(0, 0, 3)))
	assert.Equal(t, monday, StartOfWeek(monday.AddDate(0, 0, 6)))
	assert.Equal(t, monday.AddDate(0, 0, 7), StartOfWeek(monday.AddDate(0, 0, 7)))
}

func TestScheduleWeekPlacesMembers(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	member1 := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720))
	member2 := testProfile("하준", domain.Coordinates{Lat: 37.52, Lng: 127.02},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member1.ID(), domain.PaletteColor(1)))
	require.NoError(t, room.AddMember(member2.ID(), domain.PaletteColor(2)))

	result, err := newScheduler().ScheduleWeek(context.Background(), room,
		profileMap(owner, member1, member2), monday)
	require.NoError(t, err)

	require.Len(t, result.Placed, 2)
	assert.Empty(t, result.Unplaced)

	// Both members only share Monday morning with the owner, so the second
	// placement stacks after the first.
	first, second := result.Placed[0], result.Placed[1]
	assert.Equal(t, domain.DateKey(monday), first.DateKey())
	assert.Equal(t, 540, first.Start())
	assert.Equal(t, 600, first.End())
	assert.Equal(t, domain.DateKey(monday), second.DateKey())
	assert.Equal(t, 600, second.Start())

	assert.Equal(t, []string{domain.DateKey(monday)}, result.AffectedDates())
}

func TestScheduleWeekSkipsOwnerAndReportsUnplaced(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	// Saturday-only preferences never intersect the scan.
	loner := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Saturday}, 540, 720))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(loner.ID(), domain.PaletteColor(1)))

	result, err := newScheduler().ScheduleWeek(context.Background(), room,
		profileMap(owner, loner), monday)
	require.NoError(t, err)

	assert.Empty(t, result.Placed)
	assert.Equal(t, []uuid.UUID{loner.ID()}, result.Unplaced)
}

func TestScheduleWeekNormalizesWeekStart(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	member := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member.ID(), domain.PaletteColor(1)))

	// Passing a Thursday still schedules from that week's Monday.
	result, err := newScheduler().ScheduleWeek(context.Background(), room,
		profileMap(owner, member), monday.AddDate(0, 0, 3))
	require.NoError(t, err)

	assert.Equal(t, monday, result.WeekStart)
	require.Len(t, result.Placed, 1)
	assert.Equal(t, domain.DateKey(monday), result.Placed[0].DateKey())
}

func TestScheduleWeekClearsPriorProposal(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	member := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member.ID(), domain.PaletteColor(1)))

	scheduler := newScheduler()
	profiles := profileMap(owner, member)

	_, err := scheduler.ScheduleWeek(context.Background(), room, profiles, monday)
	require.NoError(t, err)
	_, err = scheduler.ScheduleWeek(context.Background(), room, profiles, monday)
	require.NoError(t, err)

	// Rerunning replaces the proposal instead of stacking a second slot.
	assert.Len(t, room.SlotsOn(monday), 1)
}

func TestScheduleWeekTravelShiftWithinCommon(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	member := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Monday}, 600, 720))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member.ID(), domain.PaletteColor(1)))
	room.SetTravelMode(domain.TravelTransit)

	settings := room.Settings()
	settings.BlockedTimes = []domain.BlockedTime{{Start: 590, End: 610, Label: "아침 회의"}}
	room.UpdateSettings(settings)

	result, err := newScheduler().ScheduleWeek(context.Background(), room,
		profileMap(owner, member), monday)
	require.NoError(t, err)

	// The candidate starts at 10:10 (past the block); its travel window hits
	// the block and shifts the slot to 10:30, still inside the common window.
	require.Len(t, result.Placed, 1)
	assert.Equal(t, 630, result.Placed[0].Start())
	assert.Equal(t, 690, result.Placed[0].End())

	travel := room.TravelSlotsOn(monday)
	require.Len(t, travel, 1)
	assert.Equal(t, 610, travel[0].Start())
	assert.Equal(t, 630, travel[0].End())
}

func TestScheduleWeekTravelRetryNextWindow(t *testing.T) {
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	// Two Monday windows; the first is too tight once travel shifts the slot.
	member := domain.NewUserProfile(uuid.New(), "민지", "", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		[]domain.ScheduleEntry{
			{DayOfWeek: time.Monday, Start: 600, End: 660, Priority: 2},
			{DayOfWeek: time.Monday, Start: 780, End: 900, Priority: 2},
		}, nil, nil)

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member.ID(), domain.PaletteColor(1)))
	room.SetTravelMode(domain.TravelTransit)

	settings := room.Settings()
	settings.BlockedTimes = []domain.BlockedTime{{Start: 530, End: 600, Label: "아침 회의"}}
	room.UpdateSettings(settings)

	result, err := newScheduler().ScheduleWeek(context.Background(), room,
		profileMap(owner, member), monday)
	require.NoError(t, err)

	// 10:00~11:00 would shift to 10:20~11:20, past the first window, so the
	// scheduler falls through to the 13:00 window.
	require.Len(t, result.Placed, 1)
	assert.Equal(t, 780, result.Placed[0].Start())
	assert.Equal(t, 840, result.Placed[0].End())
}
