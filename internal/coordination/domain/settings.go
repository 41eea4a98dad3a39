package domain

import (
	"time"
)

// RoomExceptionType distinguishes recurring from date-bounded room exceptions.
type RoomExceptionType string

const (
	ExceptionDailyRecurring RoomExceptionType = "daily_recurring"
	ExceptionDateSpecific   RoomExceptionType = "date_specific"
)

// BlockedTime is a recurring room-wide blocked interval.
type BlockedTime struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
}

// RoomException blocks time either on a weekday (daily_recurring) or within
// an inclusive [StartDate, EndDate] span (date_specific).
type RoomException struct {
	Type      RoomExceptionType `json:"type"`
	DayOfWeek time.Weekday      `json:"day_of_week,omitempty"`
	StartDate string            `json:"start_date,omitempty"` // "YYYY-MM-DD"
	EndDate   string            `json:"end_date,omitempty"`
	Start     int               `json:"start"`
	End       int               `json:"end"`
	Label     string            `json:"label,omitempty"`
}

func (e RoomException) appliesTo(date time.Time) bool {
	switch e.Type {
	case ExceptionDailyRecurring:
		return e.DayOfWeek == WeekdayOf(date)
	case ExceptionDateSpecific:
		key := DateKey(date)
		return e.StartDate <= key && key <= e.EndDate
	}
	return false
}

// RoomSettings holds the room-level scheduling parameters.
type RoomSettings struct {
	WeekdayStartHour int             `json:"weekday_start_hour"`
	WeekdayEndHour   int             `json:"weekday_end_hour"`
	ClassDuration    int             `json:"class_duration"` // minutes
	BlockedTimes     []BlockedTime   `json:"blocked_times,omitempty"`
	RoomExceptions   []RoomException `json:"room_exceptions,omitempty"`
}

// DefaultRoomSettings returns the settings a new room starts with.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		WeekdayStartHour: 9,
		WeekdayEndHour:   17,
		ClassDuration:    60,
	}
}

// BlockCheck is the result of a blocked-interval lookup. Reason carries the
// earliest blocking interval when Blocked is true.
type BlockCheck struct {
	Blocked bool
	Reason  TimeRange
	Label   string
}

// BlockedOn returns every interval on the date that must not contain a slot:
// recurring blocked times, matching room exceptions, and the absolute
// 17:00-24:00 block.
func (s RoomSettings) BlockedOn(date time.Time) []TimeRange {
	blocked := make([]TimeRange, 0, len(s.BlockedTimes)+len(s.RoomExceptions)+1)

	for _, bt := range s.BlockedTimes {
		blocked = append(blocked, TimeRange{Start: bt.Start, End: bt.End})
	}
	for _, ex := range s.RoomExceptions {
		if ex.appliesTo(date) {
			blocked = append(blocked, TimeRange{Start: ex.Start, End: ex.End})
		}
	}
	blocked = append(blocked, TimeRange{Start: AbsoluteBlockStart, End: DayMinutes})

	return MergeRanges(blocked)
}

// IsBlocked checks [startMin, endMin) against every blocked interval on the
// date. All validators go through this lookup.
func (s RoomSettings) IsBlocked(date time.Time, startMin, endMin int) BlockCheck {
	candidate := TimeRange{Start: startMin, End: endMin}
	for _, r := range s.BlockedOn(date) {
		if r.Overlaps(candidate) {
			label := ""
			if r.Start >= AbsoluteBlockStart {
				label = "absolute"
			}
			return BlockCheck{Blocked: true, Reason: r, Label: label}
		}
	}
	return BlockCheck{}
}
