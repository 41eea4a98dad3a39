package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidClock = errors.New("invalid HH:MM clock value")

const (
	// DayMinutes is the number of minutes in a day.
	DayMinutes = 24 * 60

	// SlotGranularity is the scheduling granularity in minutes. Every slot
	// boundary and every travel duration is a multiple of this.
	SlotGranularity = 10

	// AbsoluteBlockStart marks the start of the fixed evening block.
	// 17:00-24:00 is never schedulable, regardless of room settings.
	AbsoluteBlockStart = 17 * 60
)

// ParseClock converts an "HH:MM" string to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight to an "HH:MM" string.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DateKey returns the local-date key "YYYY-MM-DD" for a time.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NormalizeDate truncates a time to the start of its local day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekdayOf returns the weekday of a time.
func WeekdayOf(t time.Time) time.Weekday {
	return t.Weekday()
}

// RoundUpToGranularity rounds minutes up to the next SlotGranularity boundary.
func RoundUpToGranularity(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	rem := minutes % SlotGranularity
	if rem == 0 {
		return minutes
	}
	return minutes + SlotGranularity - rem
}

// TimeRange is a half-open interval [Start, End) in minutes from midnight.
type TimeRange struct {
	Start int
	End   int
}

// NewTimeRange creates a range; End must be after Start.
func NewTimeRange(start, end int) (TimeRange, error) {
	if end <= start {
		return TimeRange{}, fmt.Errorf("%w: end %s not after start %s",
			ErrInvalidClock, FormatClock(end), FormatClock(start))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Duration returns the length of the range in minutes.
func (r TimeRange) Duration() int { return r.End - r.Start }

// Overlaps reports whether two half-open ranges intersect.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && r.End > o.Start
}

// Contains reports whether a minute falls within the range.
func (r TimeRange) Contains(minute int) bool {
	return minute >= r.Start && minute < r.End
}

// ContainsRange reports whether o lies entirely inside r.
func (r TimeRange) ContainsRange(o TimeRange) bool {
	return o.Start >= r.Start && o.End <= r.End
}

// String renders the range as "HH:MM~HH:MM".
func (r TimeRange) String() string {
	return FormatClock(r.Start) + "~" + FormatClock(r.End)
}

// MergeRanges sorts ranges by start and coalesces overlapping or adjacent ones
// into a canonical non-overlapping ordered list.
func MergeRanges(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// SubtractRanges removes every blocker interval from the base set.
func SubtractRanges(base, blockers []TimeRange) []TimeRange {
	if len(blockers) == 0 {
		return MergeRanges(base)
	}

	result := MergeRanges(base)
	for _, blocker := range MergeRanges(blockers) {
		next := make([]TimeRange, 0, len(result))
		for _, r := range result {
			if !r.Overlaps(blocker) {
				next = append(next, r)
				continue
			}
			if blocker.Start > r.Start {
				next = append(next, TimeRange{Start: r.Start, End: blocker.Start})
			}
			if blocker.End < r.End {
				next = append(next, TimeRange{Start: blocker.End, End: r.End})
			}
		}
		result = next
	}
	return result
}

// IntersectRanges returns the pairwise intersection of two canonical sets.
func IntersectRanges(a, b []TimeRange) []TimeRange {
	ma, mb := MergeRanges(a), MergeRanges(b)
	result := make([]TimeRange, 0)
	for _, ra := range ma {
		for _, rb := range mb {
			if !ra.Overlaps(rb) {
				continue
			}
			start := ra.Start
			if rb.Start > start {
				start = rb.Start
			}
			end := ra.End
			if rb.End < end {
				end = rb.End
			}
			result = append(result, TimeRange{Start: start, End: end})
		}
	}
	return MergeRanges(result)
}

// RangesContain reports whether r lies entirely inside one of the set's ranges.
func RangesContain(set []TimeRange, r TimeRange) bool {
	for _, s := range set {
		if s.ContainsRange(r) {
			return true
		}
	}
	return false
}

// RangesOverlap reports whether r intersects any range of the set.
func RangesOverlap(set []TimeRange, r TimeRange) bool {
	for _, s := range set {
		if s.Overlaps(r) {
			return true
		}
	}
	return false
}
