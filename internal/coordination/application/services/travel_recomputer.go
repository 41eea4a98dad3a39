package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// SimSlot is a value copy of a class slot fed into travel simulation. The
// simulator may shift Start/End forward; ID links the result back to the
// stored slot.
type SimSlot struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Start  int
	End    int
}

// SimTravel is a derived travel window produced by simulation.
type SimTravel struct {
	UserID       uuid.UUID
	Start        int
	End          int
	Minutes      int
	FromName     string
	ToName       string
	DistanceText string
}

// DaySimulation is the outcome of simulating one date: the class slots in
// their final (possibly shifted) positions plus the travel windows between
// them.
type DaySimulation struct {
	Slots  []SimSlot
	Travel []SimTravel
}

// ShiftedSlots returns the ids of slots the simulation moved, with their
// final ranges.
func (d DaySimulation) ShiftedSlots(original []SimSlot) map[uuid.UUID]domain.TimeRange {
	before := make(map[uuid.UUID]int, len(original))
	for _, s := range original {
		before[s.ID] = s.Start
	}
	shifted := make(map[uuid.UUID]domain.TimeRange)
	for _, s := range d.Slots {
		if start, ok := before[s.ID]; ok && start != s.Start {
			shifted[s.ID] = domain.TimeRange{Start: s.Start, End: s.End}
		}
	}
	return shifted
}

// TravelRecomputer rebuilds the travel slots of one date from its class
// slots. Travel slots are derived, never primary: any class-slot mutation on
// a date invalidates every travel slot on it.
type TravelRecomputer struct {
	estimator     TravelEstimator
	missingCoords MissingCoordsPolicy
	logger        *slog.Logger
}

// NewTravelRecomputer creates the recomputation kernel.
func NewTravelRecomputer(estimator TravelEstimator, missingCoords MissingCoordsPolicy, logger *slog.Logger) *TravelRecomputer {
	if logger == nil {
		logger = slog.Default()
	}
	if missingCoords == "" {
		missingCoords = MissingCoordsSkip
	}
	return &TravelRecomputer{
		estimator:     estimator,
		missingCoords: missingCoords,
		logger:        logger,
	}
}

// SimulateDate derives the travel windows for a set of class slots without
// touching any aggregate. Slots whose travel window would overlap a blocked
// interval are shifted forward past it, preserving duration, until both the
// travel window and the slot are clear.
func (r *TravelRecomputer) SimulateDate(
	ctx context.Context,
	settings domain.RoomSettings,
	profiles map[uuid.UUID]*domain.UserProfile,
	ownerID uuid.UUID,
	mode domain.TravelMode,
	date time.Time,
	slots []SimSlot,
) (DaySimulation, error) {
	sim := DaySimulation{Slots: make([]SimSlot, len(slots))}
	copy(sim.Slots, slots)
	sort.Slice(sim.Slots, func(i, j int) bool { return sim.Slots[i].Start < sim.Slots[j].Start })

	if mode == domain.TravelNone {
		return sim, nil
	}

	for i := range sim.Slots {
		cur := &sim.Slots[i]

		fromID := ownerID
		fromName := profileName(profiles, ownerID)
		if i > 0 {
			fromID = sim.Slots[i-1].UserID
			fromName = profileName(profiles, fromID)
		}

		fromCoords, okFrom := profileCoords(profiles, fromID)
		toCoords, okTo := profileCoords(profiles, cur.UserID)
		if !okFrom || !okTo {
			if r.missingCoords == MissingCoordsReject {
				return sim, domain.Rejectf(domain.ReasonMissingCoordinates,
					"%s님의 위치 정보가 없어 이동시간을 계산할 수 없습니다.", profileName(profiles, cur.UserID))
			}
			r.logger.Warn("skipping travel estimate, coordinates missing",
				slog.String("user_id", cur.UserID.String()))
			continue
		}

		estimate, err := r.estimator.Estimate(ctx, fromCoords, toCoords, mode)
		if err != nil {
			return sim, fmt.Errorf("estimating travel time: %w", err)
		}
		if estimate.Minutes == 0 {
			continue
		}

		travelStart := cur.Start - estimate.Minutes
		travelEnd := cur.Start

		// Blocked-interval guard: shift the slot forward past the earliest
		// blocking interval until both windows are clear.
		for {
			if travelEnd > domain.DayMinutes {
				return sim, domain.Rejectf(domain.ReasonTravelConflict,
					"이동시간을 포함해 배정할 수 있는 시간이 없습니다. (%s)", domain.DateKey(date))
			}
			check := settings.IsBlocked(date, travelStart, travelEnd)
			if !check.Blocked {
				check = settings.IsBlocked(date, travelEnd, cur.End)
			}
			if !check.Blocked {
				break
			}
			duration := cur.End - cur.Start
			travelStart = check.Reason.End
			travelEnd = travelStart + estimate.Minutes
			cur.Start = travelEnd
			cur.End = cur.Start + duration
		}

		sim.Travel = append(sim.Travel, SimTravel{
			UserID:       cur.UserID,
			Start:        travelStart,
			End:          travelEnd,
			Minutes:      estimate.Minutes,
			FromName:     fromName,
			ToName:       profileName(profiles, cur.UserID),
			DistanceText: estimate.DistanceText,
		})
	}

	return sim, nil
}

// Recompute deletes and re-derives the travel slots on a date, applying any
// blocked-guard shifts back to the stored class slots. When onlyForUser is
// set, only that user's travel slots are rebuilt and only that user's class
// slots may shift. Returns the slots it shifted.
func (r *TravelRecomputer) Recompute(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	date time.Time,
	onlyForUser *uuid.UUID,
) (map[uuid.UUID]domain.TimeRange, error) {
	mode := room.EffectiveTravelMode()
	if mode == domain.TravelNone {
		room.RemoveTravelSlotsOn(date, nil)
		return nil, nil
	}

	room.RemoveTravelSlotsOn(date, onlyForUser)

	classSlots := room.SlotsOn(date)
	simSlots := make([]SimSlot, 0, len(classSlots))
	for _, s := range classSlots {
		simSlots = append(simSlots, SimSlot{ID: s.ID(), UserID: s.UserID(), Start: s.Start(), End: s.End()})
	}

	sim, err := r.SimulateDate(ctx, room.Settings(), profiles, room.OwnerID(), mode, date, simSlots)
	if err != nil {
		return nil, err
	}

	shifted := sim.ShiftedSlots(simSlots)
	for id, rng := range shifted {
		slot, ok := room.SlotByID(id)
		if !ok {
			continue
		}
		if onlyForUser != nil && slot.UserID() != *onlyForUser {
			continue
		}
		slot.MoveTo(rng.Start)
	}

	for _, t := range sim.Travel {
		if onlyForUser != nil && t.UserID != *onlyForUser {
			continue
		}
		color := ""
		if m, ok := room.MemberOf(t.UserID); ok {
			color = m.Color()
		}
		travelSlot, err := domain.NewTravelSlot(t.UserID, date, t.Start, t.End, domain.TravelInfo{
			From:         t.FromName,
			To:           t.ToName,
			DurationText: fmt.Sprintf("%d분", t.Minutes),
			DistanceText: t.DistanceText,
			Mode:         mode,
		}, color)
		if err != nil {
			return nil, fmt.Errorf("building travel slot: %w", err)
		}
		room.ForceAddSlot(travelSlot)
	}

	return shifted, nil
}

func profileCoords(profiles map[uuid.UUID]*domain.UserProfile, id uuid.UUID) (domain.Coordinates, bool) {
	p, ok := profiles[id]
	if !ok || p.Coords().IsZero() {
		return domain.Coordinates{}, false
	}
	return p.Coords(), true
}

func profileName(profiles map[uuid.UUID]*domain.UserProfile, id uuid.UUID) string {
	if p, ok := profiles[id]; ok {
		return p.Name()
	}
	return "알 수 없음"
}
