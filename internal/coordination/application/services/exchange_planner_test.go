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

func intPtr(n int) *int                   { return &n }
func dayPtr(d time.Weekday) *time.Weekday { return &d }

type plannerFixture struct {
	planner  *ExchangePlanner
	room     *domain.Room
	owner    *domain.UserProfile
	member   *domain.UserProfile
	other    *domain.UserProfile
	profiles map[uuid.UUID]*domain.UserProfile
}

// newPlannerFixture builds a room whose owner is free Mon~Fri 09:00~18:00 and
// whose two members share Monday and Wednesday mornings, with the planner
// clock pinned to the reference Monday.
func newPlannerFixture(t *testing.T, memberEnd int) *plannerFixture {
	t.Helper()

	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule(weekdays, 540, 1080))
	member := testProfile("민지", domain.Coordinates{Lat: 37.51, Lng: 127.01},
		weekdaySchedule([]time.Weekday{time.Monday, time.Wednesday}, 540, memberEnd))
	other := testProfile("하준", domain.Coordinates{Lat: 37.52, Lng: 127.02},
		weekdaySchedule([]time.Weekday{time.Monday, time.Wednesday}, 540, memberEnd))

	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(member.ID(), domain.PaletteColor(1)))
	require.NoError(t, room.AddMember(other.ID(), domain.PaletteColor(2)))

	recomputer := NewTravelRecomputer(&stubEstimator{minutes: 20}, MissingCoordsSkip, nil)
	planner := NewExchangePlanner(recomputer, nil, func() time.Time { return monday })

	return &plannerFixture{
		planner:  planner,
		room:     room,
		owner:    owner,
		member:   member,
		other:    other,
		profiles: profileMap(owner, member, other),
	}
}

func (f *plannerFixture) addClass(t *testing.T, userID uuid.UUID, date time.Time, start, end int) *domain.Slot {
	t.Helper()
	slot, err := domain.NewClassSlot(userID, date, start, end, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, f.room.AddSlot(slot))
	return slot
}

func requireRejection(t *testing.T, err error, reason string) *domain.RejectionError {
	t.Helper()
	require.Error(t, err)
	rej, ok := domain.AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, reason, rej.Reason)
	return rej
}

func TestApplyImmediateSwap(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(600),
		})
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.True(t, outcome.Mutated)
	assert.False(t, outcome.NeedsApproval)
	assert.Equal(t, "수업을 1월 7일(수) 10:00~11:00(으)로 이동했습니다.", outcome.Message)
	assert.Equal(t, []string{domain.DateKey(monday), domain.DateKey(wednesday)}, outcome.AffectedDates)

	assert.Empty(t, f.room.UserSlotsOn(f.member.ID(), monday))
	moved := f.room.UserSlotsOn(f.member.ID(), wednesday)
	require.Len(t, moved, 1)
	assert.Equal(t, 600, moved[0].Start())
	assert.Equal(t, 660, moved[0].End())
}

func TestApplyNextWeekUsesStandingSchedule(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	nextWednesday := monday.AddDate(0, 0, 9)

	// One-off appointment over next Wednesday morning. Only the standing
	// Mon/Wed schedule counts when the target is outside the current week.
	f.profiles[f.member.ID()] = domain.NewUserProfile(f.member.ID(), f.member.Name(), "",
		f.member.Coords(),
		weekdaySchedule([]time.Weekday{time.Monday, time.Wednesday}, 540, 720),
		nil,
		[]domain.PersonalTime{{SpecificDate: domain.DateKey(nextWednesday), Start: 570, End: 690, Title: "병원"}})

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			WeekOffset: intPtr(1),
			TargetTime: intPtr(600),
		})
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.Equal(t, "수업을 1월 14일(수) 10:00~11:00(으)로 이동했습니다.", outcome.Message)

	moved := f.room.UserSlotsOn(f.member.ID(), nextWednesday)
	require.Len(t, moved, 1)
	assert.Equal(t, 600, moved[0].Start())
	assert.Equal(t, 660, moved[0].End())
}

func TestApplyMoveAndBackRestoresSlotSet(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)

	ctx := context.Background()
	toWednesday := domain.ParsedIntent{
		Type:       domain.IntentTimeChange,
		SourceDay:  dayPtr(time.Monday),
		TargetDay:  dayPtr(time.Wednesday),
		TargetTime: intPtr(600),
	}
	backToMonday := domain.ParsedIntent{
		Type:       domain.IntentTimeChange,
		SourceDay:  dayPtr(time.Wednesday),
		TargetDay:  dayPtr(time.Monday),
		TargetTime: intPtr(600),
	}

	_, err := f.planner.Apply(ctx, f.room, f.profiles, f.member.ID(), toWednesday)
	require.NoError(t, err)
	_, err = f.planner.Apply(ctx, f.room, f.profiles, f.member.ID(), backToMonday)
	require.NoError(t, err)

	restored := f.room.UserSlotsOn(f.member.ID(), monday)
	require.Len(t, restored, 1)
	assert.Equal(t, 600, restored[0].Start())
	assert.Equal(t, 660, restored[0].End())
	assert.Empty(t, f.room.UserSlotsOn(f.member.ID(), wednesday))
}

func TestApplyAlreadyAtTarget(t *testing.T) {
	f := newPlannerFixture(t, 720)
	slot := f.addClass(t, f.member.ID(), monday, 600, 660)

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Monday),
			TargetTime: intPtr(600),
		})
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.False(t, outcome.Mutated)
	assert.Equal(t, "이미 해당 시간에 배정되어 있습니다.", outcome.Message)

	kept := f.room.UserSlotsOn(f.member.ID(), monday)
	require.Len(t, kept, 1)
	assert.Equal(t, slot.ID(), kept[0].ID())
}

func TestApplyWeekendRejected(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:      domain.IntentTimeChange,
			SourceDay: dayPtr(time.Monday),
			TargetDay: dayPtr(time.Saturday),
		})

	rej := requireRejection(t, err, domain.ReasonInvalidIntent)
	assert.Equal(t, "주말로는 수업을 이동할 수 없습니다.", rej.Message)
}

func TestApplySourceNotFound(t *testing.T) {
	f := newPlannerFixture(t, 720)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:      domain.IntentTimeChange,
			SourceDay: dayPtr(time.Monday),
			TargetDay: dayPtr(time.Wednesday),
		})

	rej := requireRejection(t, err, domain.ReasonSourceSlotNotFound)
	assert.Equal(t, "1월 5일(월)에 이동할 수업이 없습니다.", rej.Message)
}

func TestApplyAutoPlaceAfterOccupiedStart(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)
	// The requester already holds Wednesday 10:00, so the move lands in the
	// next free 30-minute-aligned gap.
	f.addClass(t, f.member.ID(), wednesday, 600, 660)

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:      domain.IntentTimeChange,
			SourceDay: dayPtr(time.Monday),
			TargetDay: dayPtr(time.Wednesday),
		})
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.Equal(t, 660, outcome.TargetStart)
	assert.Equal(t, 720, outcome.TargetEnd)
	assert.Equal(t, "해당 시간이 차 있어 수업을 1월 7일(수) 11:00~12:00(으)로 배정했습니다.", outcome.Message)

	assert.Empty(t, f.room.UserSlotsOn(f.member.ID(), monday))
	assert.Len(t, f.room.UserSlotsOn(f.member.ID(), wednesday), 2)
}

func TestApplyYieldRequest(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)
	f.addClass(t, f.other.ID(), wednesday, 600, 660)

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(600),
			Message:    "수요일 10시로 바꿔주세요",
		})
	require.NoError(t, err)

	assert.True(t, outcome.NeedsApproval)
	assert.False(t, outcome.ImmediateSwap)
	assert.Equal(t, "해당 시간은 하준님의 수업과 겹칩니다. 하준님에게 양보 요청을 보냈습니다.", outcome.Message)

	require.NotNil(t, outcome.Request)
	assert.Equal(t, f.other.ID(), outcome.Request.TargetUserID())
	assert.True(t, outcome.Request.IsPending())
	assert.Len(t, f.room.PendingRequests(), 1)

	// Nothing moves until the occupant approves.
	assert.Len(t, f.room.UserSlotsOn(f.member.ID(), monday), 1)
	assert.Len(t, f.room.UserSlotsOn(f.other.ID(), wednesday), 1)
}

func TestApplySelfConflictWithExplicitTime(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)
	f.addClass(t, f.member.ID(), wednesday, 600, 660)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(600),
		})

	rej := requireRejection(t, err, domain.ReasonNoPlacement)
	assert.Equal(t, "해당 시간에 이미 회원님의 다른 수업이 있습니다.", rej.Message)
}

func TestApplyAbsoluteBlock(t *testing.T) {
	f := newPlannerFixture(t, 1080)
	f.addClass(t, f.member.ID(), monday, 600, 660)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(990),
		})

	rej := requireRejection(t, err, domain.ReasonTargetBlocked)
	assert.Equal(t, "17:00~24:00 시간대에는 수업을 배정할 수 없습니다.", rej.Message)
}

func TestApplyOutsideCommonPreference(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(720),
		})

	rej := requireRejection(t, err, domain.ReasonOutsidePreference)
	assert.Equal(t, "12:00~13:00은(는) 공통 선호 시간(09:00~12:00)을 벗어납니다.", rej.Message)
}

func TestApplyOwnerUnavailableOnTarget(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)

	// Owner is only free on Monday this week.
	owner := testProfile("방장", domain.Coordinates{Lat: 37.50, Lng: 127.00},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 1080))
	profiles := profileMap(owner, f.member, f.other)
	room := domain.NewRoom("테스트 방", owner.ID(), "ABCD1234", domain.PaletteColor(0))
	require.NoError(t, room.AddMember(f.member.ID(), domain.PaletteColor(1)))
	slot, err := domain.NewClassSlot(f.member.ID(), monday, 600, 660, domain.SubjectAutoAssigned, "")
	require.NoError(t, err)
	require.NoError(t, room.AddSlot(slot))

	_, err = f.planner.Apply(context.Background(), room, profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:      domain.IntentTimeChange,
			SourceDay: dayPtr(time.Monday),
			TargetDay: dayPtr(time.Wednesday),
		})

	rej := requireRejection(t, err, domain.ReasonOwnerPreferenceConflict)
	assert.Equal(t, "방장은 1월 7일(수)에 가능한 시간이 없습니다.", rej.Message)
}

func TestApplyDateChange(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)

	outcome, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:             domain.IntentDateChange,
			SourceMonth:      intPtr(1),
			SourceDayOfMonth: intPtr(5),
			TargetMonth:      intPtr(1),
			TargetDayOfMonth: intPtr(7),
		})
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.Equal(t, domain.DateKey(wednesday), domain.DateKey(outcome.TargetDate))
	require.Len(t, f.room.UserSlotsOn(f.member.ID(), wednesday), 1)
}

func TestApplyUnsupportedIntent(t *testing.T) {
	f := newPlannerFixture(t, 720)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{Type: domain.IntentConfirm})

	requireRejection(t, err, domain.ReasonInvalidIntent)
}

func TestApplyTravelPreflightConflict(t *testing.T) {
	// Member mornings are a tight 09:00~10:00 window; a block under the travel
	// window shifts the slot to 09:20, which no longer fits.
	f := newPlannerFixture(t, 600)
	f.addClass(t, f.member.ID(), monday, 540, 600)
	f.room.SetTravelMode(domain.TravelTransit)

	settings := f.room.Settings()
	settings.BlockedTimes = []domain.BlockedTime{{Start: 520, End: 540, Label: "회의"}}
	f.room.UpdateSettings(settings)

	_, err := f.planner.Apply(context.Background(), f.room, f.profiles, f.member.ID(),
		domain.ParsedIntent{
			Type:       domain.IntentTimeChange,
			SourceDay:  dayPtr(time.Monday),
			TargetDay:  dayPtr(time.Wednesday),
			TargetTime: intPtr(540),
		})

	rej := requireRejection(t, err, domain.ReasonTravelPreferenceConflict)
	assert.Equal(t, "이동시간을 고려하면 해당 시간에는 배정할 수 없습니다.", rej.Message)
}

func TestApplyApproval(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)
	f.addClass(t, f.other.ID(), wednesday, 600, 660)

	req := domain.NewExchangeRequest(f.room.ID(), f.member.ID(), f.other.ID(), domain.RequestTimeChange,
		[]domain.SlotSnapshot{{Date: domain.DateKey(monday), Start: 600, End: 660, Subject: domain.SubjectAutoAssigned}},
		domain.TargetSlotRef{Date: domain.DateKey(wednesday), Start: 600, End: 660},
		"")
	f.room.AddRequest(req)

	outcome, err := f.planner.ApplyApproval(context.Background(), f.room, f.profiles, req)
	require.NoError(t, err)

	assert.True(t, outcome.ImmediateSwap)
	assert.True(t, outcome.Mutated)
	assert.Equal(t, "양보 요청을 승인했습니다. 수업이 1월 7일(수) 10:00~11:00(으)로 이동했습니다.", outcome.Message)
	assert.Equal(t, []string{domain.DateKey(monday), domain.DateKey(wednesday)}, outcome.AffectedDates)

	// The two sides swapped windows.
	requesterSlots := f.room.UserSlotsOn(f.member.ID(), wednesday)
	require.Len(t, requesterSlots, 1)
	assert.Equal(t, 600, requesterSlots[0].Start())
	assert.Equal(t, domain.SubjectExchange, requesterSlots[0].Subject())

	occupantSlots := f.room.UserSlotsOn(f.other.ID(), monday)
	require.Len(t, occupantSlots, 1)
	assert.Equal(t, 600, occupantSlots[0].Start())
	assert.Equal(t, domain.SubjectExchange, occupantSlots[0].Subject())

	assert.Empty(t, f.room.UserSlotsOn(f.member.ID(), monday))
	assert.Empty(t, f.room.UserSlotsOn(f.other.ID(), wednesday))
}

func TestApplyApprovalStale(t *testing.T) {
	f := newPlannerFixture(t, 720)
	requesterSlot := f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)
	f.addClass(t, f.other.ID(), wednesday, 600, 660)

	req := domain.NewExchangeRequest(f.room.ID(), f.member.ID(), f.other.ID(), domain.RequestTimeChange,
		[]domain.SlotSnapshot{{Date: domain.DateKey(monday), Start: 600, End: 660, Subject: domain.SubjectAutoAssigned}},
		domain.TargetSlotRef{Date: domain.DateKey(wednesday), Start: 600, End: 660},
		"")
	f.room.AddRequest(req)

	// The requester's slot moved after the request was created.
	f.room.RemoveSlots(requesterSlot.ID())

	_, err := f.planner.ApplyApproval(context.Background(), f.room, f.profiles, req)
	rej := requireRejection(t, err, domain.ReasonStaleRequest)
	assert.Equal(t, "요청 이후 일정이 변경되어 승인할 수 없습니다.", rej.Message)
}

func TestApplyApprovalStaleOccupant(t *testing.T) {
	f := newPlannerFixture(t, 720)
	f.addClass(t, f.member.ID(), monday, 600, 660)
	wednesday := monday.AddDate(0, 0, 2)

	// The occupant no longer holds anything at the requested window.
	req := domain.NewExchangeRequest(f.room.ID(), f.member.ID(), f.other.ID(), domain.RequestTimeChange,
		[]domain.SlotSnapshot{{Date: domain.DateKey(monday), Start: 600, End: 660, Subject: domain.SubjectAutoAssigned}},
		domain.TargetSlotRef{Date: domain.DateKey(wednesday), Start: 600, End: 660},
		"")
	f.room.AddRequest(req)

	_, err := f.planner.ApplyApproval(context.Background(), f.room, f.profiles, req)
	requireRejection(t, err, domain.ReasonStaleRequest)
}
