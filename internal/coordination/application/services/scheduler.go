package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// maxPlacementAttempts bounds the travel-retry loop per member.
const maxPlacementAttempts = 16

// ScheduleResult reports what a weekly run produced.
type ScheduleResult struct {
	WeekStart time.Time
	Placed    []*domain.Slot
	Unplaced  []uuid.UUID
}

// AffectedDates returns the distinct date keys the run touched, sorted.
func (r ScheduleResult) AffectedDates() []string {
	seen := make(map[string]struct{})
	for _, s := range r.Placed {
		seen[s.DateKey()] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Scheduler builds the weekly proposed assignment: one class slot per member
// inside the intersection of the owner's and the member's preferred windows,
// clear of all blocked intervals, with travel feasibility when a travel mode
// is active.
type Scheduler struct {
	recomputer *TravelRecomputer
	logger     *slog.Logger
}

// NewScheduler creates the scheduling engine.
func NewScheduler(recomputer *TravelRecomputer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{recomputer: recomputer, logger: logger}
}

// ScheduleWeek clears the room's proposed slots and greedily places every
// member in the week starting at weekStart (normalized to its Monday).
// Members with a higher carry-over are served first among otherwise equal
// candidates.
func (s *Scheduler) ScheduleWeek(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	weekStart time.Time,
) (ScheduleResult, error) {
	monday := StartOfWeek(weekStart)
	result := ScheduleResult{WeekStart: monday}

	room.ClearProposedSlots()

	members := make([]domain.Member, len(room.Members()))
	copy(members, room.Members())
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CarryOver() > members[j].CarryOver()
	})

	owner, ok := profiles[room.OwnerID()]
	if !ok {
		return result, domain.ErrProfileNotFound
	}
	duration := room.Settings().ClassDuration

	for _, member := range members {
		if member.UserID() == room.OwnerID() {
			continue
		}
		profile, ok := profiles[member.UserID()]
		if !ok {
			s.logger.Warn("skipping member without profile",
				slog.String("user_id", member.UserID().String()))
			result.Unplaced = append(result.Unplaced, member.UserID())
			continue
		}

		placed, err := s.placeMember(ctx, room, profiles, owner, profile, member, monday, duration)
		if err != nil {
			return result, err
		}
		if placed == nil {
			result.Unplaced = append(result.Unplaced, member.UserID())
			continue
		}
		result.Placed = append(result.Placed, placed)
	}

	return result, nil
}

// placeMember tries candidate windows in (date, start) order until one
// survives travel recomputation, skipping windows whose recomputed slot
// drifted outside the common preference intersection.
func (s *Scheduler) placeMember(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	owner, profile *domain.UserProfile,
	member domain.Member,
	monday time.Time,
	duration int,
) (*domain.Slot, error) {
	// notBefore advances past windows already proven travel-infeasible.
	notBefore := make(map[string]int)

	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		date, start, common, found := s.findCandidate(room, owner, profile, member.UserID(), monday, duration, notBefore)
		if !found {
			return nil, nil
		}

		slot, err := domain.NewClassSlot(member.UserID(), date, start, start+duration,
			domain.SubjectAutoAssigned, member.Color())
		if err != nil {
			return nil, err
		}
		slot.SetPriority(2)
		if err := room.AddSlot(slot); err != nil {
			notBefore[domain.DateKey(date)] = start + domain.SlotGranularity
			continue
		}

		if room.EffectiveTravelMode() == domain.TravelNone {
			return slot, nil
		}

		shifted, err := s.recomputer.Recompute(ctx, room, profiles, date, nil)
		if err != nil {
			if _, rejected := domain.AsRejection(err); rejected {
				room.RemoveSlots(slot.ID())
				notBefore[domain.DateKey(date)] = start + domain.SlotGranularity
				continue
			}
			return nil, err
		}

		if rng, moved := shifted[slot.ID()]; moved && !domain.RangesContain(common, rng) {
			// The shift pushed the slot past the common windows: undo and
			// retry from the next candidate window.
			room.RemoveSlots(slot.ID())
			notBefore[domain.DateKey(date)] = start + domain.SlotGranularity
			if _, err := s.recomputer.Recompute(ctx, room, profiles, date, nil); err != nil {
				return nil, err
			}
			continue
		}

		return slot, nil
	}

	return nil, nil
}

// findCandidate scans Monday through Friday for the earliest window of the
// required duration inside owner ∩ member preferences, clear of blocked
// intervals and of every already placed class slot.
func (s *Scheduler) findCandidate(
	room *domain.Room,
	owner, profile *domain.UserProfile,
	memberID uuid.UUID,
	monday time.Time,
	duration int,
	notBefore map[string]int,
) (time.Time, int, []domain.TimeRange, bool) {
	for day := 0; day < 5; day++ {
		date := monday.AddDate(0, 0, day)

		common := domain.IntersectRanges(owner.PreferredWindows(date), profile.PreferredWindows(date))
		if len(common) == 0 {
			continue
		}

		free := domain.SubtractRanges(common, room.Settings().BlockedOn(date))
		for _, existing := range room.SlotsOn(date) {
			free = domain.SubtractRanges(free, []domain.TimeRange{existing.Range()})
		}

		floor := notBefore[domain.DateKey(date)]
		for _, w := range free {
			start := w.Start
			if start < floor {
				start = floor
			}
			start = domain.RoundUpToGranularity(start)
			if start+duration <= w.End {
				return date, start, common, true
			}
		}
	}
	return time.Time{}, 0, nil, false
}

// StartOfWeek normalizes a date to the Monday of its week.
func StartOfWeek(t time.Time) time.Time {
	t = domain.NormalizeDate(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
