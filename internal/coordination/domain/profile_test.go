package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a fixed reference Monday.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)

func weekdaySchedule(days []time.Weekday, start, end int) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(days))
	for _, d := range days {
		entries = append(entries, ScheduleEntry{DayOfWeek: d, Start: start, End: end, Priority: 2})
	}
	return entries
}

func TestPreferredWindowsDefaultSchedule(t *testing.T) {
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday, time.Wednesday}, 540, 720), nil, nil)

	wins := p.PreferredWindows(monday)
	require.Len(t, wins, 1)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, wins[0])

	// Tuesday has no entry.
	assert.Empty(t, p.PreferredWindows(monday.AddDate(0, 0, 1)))
}

func TestPreferredWindowsExceptionAdds(t *testing.T) {
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720),
		[]ScheduleException{{Date: DateKey(monday), Start: 780, End: 900}},
		nil)

	wins := p.PreferredWindows(monday)
	require.Len(t, wins, 2)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, wins[0])
	assert.Equal(t, TimeRange{Start: 780, End: 900}, wins[1])
}

func TestPreferredWindowsHoliday(t *testing.T) {
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720),
		[]ScheduleException{{Date: DateKey(monday), IsHoliday: true}},
		nil)

	assert.True(t, p.IsHoliday(monday))
	assert.Empty(t, p.PreferredWindows(monday))
}

func TestPreferredWindowsPersonalBlocker(t *testing.T) {
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 1020),
		nil,
		[]PersonalTime{{Days: []time.Weekday{time.Monday}, Start: 720, End: 780, Title: "점심"}})

	wins := p.PreferredWindows(monday)
	require.Len(t, wins, 2)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, wins[0])
	assert.Equal(t, TimeRange{Start: 780, End: 1020}, wins[1])
}

func TestPersonalBlockerCrossesMidnight(t *testing.T) {
	// A 23:00~07:00 block on Monday covers Monday evening and spills into
	// Tuesday morning.
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		nil, nil,
		[]PersonalTime{{Days: []time.Weekday{time.Monday}, Start: 1380, End: 420, Title: "수면"}})

	mondayBlockers := p.PersonalBlockers(monday)
	require.Len(t, mondayBlockers, 1)
	assert.Equal(t, TimeRange{Start: 1380, End: DayMinutes}, mondayBlockers[0])

	tuesday := monday.AddDate(0, 0, 1)
	tuesdayBlockers := p.PersonalBlockers(tuesday)
	require.Len(t, tuesdayBlockers, 1)
	assert.Equal(t, TimeRange{Start: 0, End: 420}, tuesdayBlockers[0])

	// Wednesday is untouched.
	assert.Empty(t, p.PersonalBlockers(monday.AddDate(0, 0, 2)))
}

func TestPersonalBlockerSpecificDate(t *testing.T) {
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720),
		nil,
		[]PersonalTime{{SpecificDate: DateKey(monday), Start: 540, End: 600, Title: "병원"}})

	wins := p.PreferredWindows(monday)
	require.Len(t, wins, 1)
	assert.Equal(t, TimeRange{Start: 600, End: 720}, wins[0])

	// The following Monday is unaffected.
	next := monday.AddDate(0, 0, 7)
	wins = p.PreferredWindows(next)
	require.Len(t, wins, 1)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, wins[0])
}

func TestRecurringWindowsIgnoreDateBoundOverrides(t *testing.T) {
	next := monday.AddDate(0, 0, 7)
	p := NewUserProfile(uuid.New(), "민지", "", Coordinates{},
		weekdaySchedule([]time.Weekday{time.Monday}, 540, 720),
		[]ScheduleException{{Date: DateKey(next), Start: 780, End: 900}},
		[]PersonalTime{
			{SpecificDate: DateKey(next), Start: 540, End: 600, Title: "병원"},
			{Days: []time.Weekday{time.Monday}, Start: 660, End: 720, Title: "점심"},
		})

	// One-off personal times and date-bound exceptions drop out; the
	// recurring lunch blocker stays.
	wins := p.RecurringWindows(next)
	require.Len(t, wins, 1)
	assert.Equal(t, TimeRange{Start: 540, End: 660}, wins[0])

	// PreferredWindows on the same date still applies everything.
	full := p.PreferredWindows(next)
	require.Len(t, full, 2)
	assert.Equal(t, TimeRange{Start: 600, End: 660}, full[0])
	assert.Equal(t, TimeRange{Start: 780, End: 900}, full[1])
}
