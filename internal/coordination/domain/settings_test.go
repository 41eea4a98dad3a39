package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockedOnAlwaysIncludesEveningBlock(t *testing.T) {
	s := DefaultRoomSettings()

	blocked := s.BlockedOn(monday)
	require.Len(t, blocked, 1)
	assert.Equal(t, TimeRange{Start: AbsoluteBlockStart, End: DayMinutes}, blocked[0])
}

func TestIsBlockedAbsolute(t *testing.T) {
	s := DefaultRoomSettings()

	check := s.IsBlocked(monday, 990, 1050) // 16:30~17:30
	require.True(t, check.Blocked)
	assert.Equal(t, "absolute", check.Label)
	assert.Equal(t, TimeRange{Start: 1020, End: 1440}, check.Reason)

	// 16:00~17:00 touches the block boundary but does not cross it.
	assert.False(t, s.IsBlocked(monday, 960, 1020).Blocked)
}

func TestIsBlockedRecurring(t *testing.T) {
	s := DefaultRoomSettings()
	s.BlockedTimes = []BlockedTime{{Start: 720, End: 780, Label: "점심시간"}}

	check := s.IsBlocked(monday, 750, 810)
	require.True(t, check.Blocked)
	assert.Empty(t, check.Label)
	assert.Equal(t, TimeRange{Start: 720, End: 780}, check.Reason)

	assert.False(t, s.IsBlocked(monday, 600, 660).Blocked)
}

func TestRoomExceptionDailyRecurring(t *testing.T) {
	s := DefaultRoomSettings()
	s.RoomExceptions = []RoomException{{
		Type:      ExceptionDailyRecurring,
		DayOfWeek: time.Monday,
		Start:     540,
		End:       600,
	}}

	assert.True(t, s.IsBlocked(monday, 540, 600).Blocked)
	assert.False(t, s.IsBlocked(monday.AddDate(0, 0, 1), 540, 600).Blocked)
}

func TestRoomExceptionDateSpecific(t *testing.T) {
	s := DefaultRoomSettings()
	s.RoomExceptions = []RoomException{{
		Type:      ExceptionDateSpecific,
		StartDate: DateKey(monday),
		EndDate:   DateKey(monday.AddDate(0, 0, 2)),
		Start:     540,
		End:       720,
	}}

	// Inclusive on both bounds.
	assert.True(t, s.IsBlocked(monday, 540, 600).Blocked)
	assert.True(t, s.IsBlocked(monday.AddDate(0, 0, 2), 540, 600).Blocked)
	assert.False(t, s.IsBlocked(monday.AddDate(0, 0, 3), 540, 600).Blocked)
}
