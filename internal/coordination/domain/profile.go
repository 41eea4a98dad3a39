package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coordinates is a geographic point used for travel-time estimation.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the coordinates are unset.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// ScheduleEntry is a recurring or date-specific preferred interval in a
// user's weekly calendar.
type ScheduleEntry struct {
	DayOfWeek    time.Weekday
	SpecificDate string // "YYYY-MM-DD", empty for recurring entries
	Start        int    // minutes from midnight
	End          int
	Priority     int // 1-3; >= 2 is rendered as preferred by the UI
}

// ScheduleException is a date-specific override of the default schedule.
type ScheduleException struct {
	Date      string // "YYYY-MM-DD"
	Start     int
	End       int
	IsHoliday bool
}

// PersonalTime is a recurring or one-off personal block. Personal times are
// blockers, never preferences.
type PersonalTime struct {
	Days         []time.Weekday
	SpecificDate string // "YYYY-MM-DD", empty for recurring entries
	Start        int
	End          int // may be <= Start for blocks crossing midnight
	Title        string
}

// CrossesMidnight reports whether the block wraps past 24:00.
func (p PersonalTime) CrossesMidnight() bool {
	return p.End <= p.Start
}

func (p PersonalTime) matchesDate(date time.Time) bool {
	if p.SpecificDate != "" {
		return p.SpecificDate == DateKey(date)
	}
	for _, d := range p.Days {
		if d == WeekdayOf(date) {
			return true
		}
	}
	return false
}

// UserProfile is a read-only projection of an externally owned user record.
// The coordination core never writes profiles.
type UserProfile struct {
	id                 uuid.UUID
	name               string
	address            string
	coords             Coordinates
	defaultSchedule    []ScheduleEntry
	scheduleExceptions []ScheduleException
	personalTimes      []PersonalTime
}

// NewUserProfile creates a profile projection.
func NewUserProfile(
	id uuid.UUID,
	name, address string,
	coords Coordinates,
	defaultSchedule []ScheduleEntry,
	exceptions []ScheduleException,
	personalTimes []PersonalTime,
) *UserProfile {
	return &UserProfile{
		id:                 id,
		name:               name,
		address:            address,
		coords:             coords,
		defaultSchedule:    defaultSchedule,
		scheduleExceptions: exceptions,
		personalTimes:      personalTimes,
	}
}

func (p *UserProfile) ID() uuid.UUID                    { return p.id }
func (p *UserProfile) Name() string                     { return p.name }
func (p *UserProfile) Address() string                  { return p.address }
func (p *UserProfile) Coords() Coordinates              { return p.coords }
func (p *UserProfile) DefaultSchedule() []ScheduleEntry { return p.defaultSchedule }

func (p *UserProfile) ScheduleExceptions() []ScheduleException { return p.scheduleExceptions }
func (p *UserProfile) PersonalTimes() []PersonalTime           { return p.personalTimes }

// IsHoliday reports whether the user flagged the date as a holiday.
func (p *UserProfile) IsHoliday(date time.Time) bool {
	key := DateKey(date)
	for _, ex := range p.scheduleExceptions {
		if ex.Date == key && ex.IsHoliday {
			return true
		}
	}
	return false
}

// PreferredWindows resolves the user's preferred intervals for a date into a
// canonical ordered list of non-overlapping ranges: default-schedule entries
// matching the date, plus date-specific exception windows, minus personal-time
// blockers.
func (p *UserProfile) PreferredWindows(date time.Time) []TimeRange {
	if p.IsHoliday(date) {
		return nil
	}

	key := DateKey(date)
	weekday := WeekdayOf(date)

	prefs := make([]TimeRange, 0, len(p.defaultSchedule))
	for _, entry := range p.defaultSchedule {
		if entry.SpecificDate != "" {
			if entry.SpecificDate == key {
				prefs = append(prefs, TimeRange{Start: entry.Start, End: entry.End})
			}
			continue
		}
		if entry.DayOfWeek == weekday {
			prefs = append(prefs, TimeRange{Start: entry.Start, End: entry.End})
		}
	}

	for _, ex := range p.scheduleExceptions {
		if ex.Date == key && !ex.IsHoliday {
			prefs = append(prefs, TimeRange{Start: ex.Start, End: ex.End})
		}
	}

	return SubtractRanges(prefs, p.PersonalBlockers(date))
}

// RecurringWindows resolves preferred intervals from the weekly defaults
// only: date-bound exceptions, holidays and one-off personal times are
// ignored. Used when judging a date outside the current week, where only the
// standing weekly schedule counts as "preferred".
func (p *UserProfile) RecurringWindows(date time.Time) []TimeRange {
	weekday := WeekdayOf(date)

	prefs := make([]TimeRange, 0, len(p.defaultSchedule))
	for _, entry := range p.defaultSchedule {
		if entry.SpecificDate == "" && entry.DayOfWeek == weekday {
			prefs = append(prefs, TimeRange{Start: entry.Start, End: entry.End})
		}
	}

	return SubtractRanges(prefs, p.recurringBlockers(date))
}

func (p *UserProfile) recurringBlockers(date time.Time) []TimeRange {
	blockers := make([]TimeRange, 0)
	weekday := WeekdayOf(date)
	prev := WeekdayOf(date.AddDate(0, 0, -1))

	for _, pt := range p.personalTimes {
		if pt.SpecificDate != "" {
			continue
		}
		for _, d := range pt.Days {
			if d == weekday {
				if pt.CrossesMidnight() {
					blockers = append(blockers, TimeRange{Start: pt.Start, End: DayMinutes})
				} else {
					blockers = append(blockers, TimeRange{Start: pt.Start, End: pt.End})
				}
			}
			if d == prev && pt.CrossesMidnight() && pt.End > 0 {
				blockers = append(blockers, TimeRange{Start: 0, End: pt.End})
			}
		}
	}

	return MergeRanges(blockers)
}

// PersonalBlockers returns the personal-time intervals blocking the given
// date. A block crossing midnight contributes its evening half to its own
// date and its morning half to the following date.
func (p *UserProfile) PersonalBlockers(date time.Time) []TimeRange {
	blockers := make([]TimeRange, 0)

	for _, pt := range p.personalTimes {
		if pt.matchesDate(date) {
			if pt.CrossesMidnight() {
				blockers = append(blockers, TimeRange{Start: pt.Start, End: DayMinutes})
			} else {
				blockers = append(blockers, TimeRange{Start: pt.Start, End: pt.End})
			}
		}
	}

	// Morning spill-over from midnight-crossing blocks on the previous day.
	prev := date.AddDate(0, 0, -1)
	for _, pt := range p.personalTimes {
		if pt.CrossesMidnight() && pt.End > 0 && pt.matchesDate(prev) {
			blockers = append(blockers, TimeRange{Start: 0, End: pt.End})
		}
	}

	return MergeRanges(blockers)
}
