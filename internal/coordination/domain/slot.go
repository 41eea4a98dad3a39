package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
)

var (
	ErrInvalidSlotRange = errors.New("slot end must be after start")
	ErrSlotGranularity  = errors.New("slot boundaries must be 10-minute aligned")
)

// SlotStatus is the lifecycle state of a slot.
type SlotStatus string

const (
	SlotProposed  SlotStatus = "proposed"
	SlotConfirmed SlotStatus = "confirmed"
)

// TravelMode selects the routing profile for travel-time computation.
type TravelMode string

const (
	TravelNone      TravelMode = "none"
	TravelDriving   TravelMode = "driving"
	TravelTransit   TravelMode = "transit"
	TravelWalking   TravelMode = "walking"
	TravelBicycling TravelMode = "bicycling"
)

// Human-readable slot subjects, part of the API contract.
const (
	SubjectAutoAssigned = "자동 배정"
	SubjectTravel       = "이동시간"
	SubjectExchange     = "교환 결과"
)

// TravelInfo describes the derived travel leg attached to a travel slot.
type TravelInfo struct {
	From         string     `json:"from"`
	To           string     `json:"to"`
	DurationText string     `json:"duration_text"`
	DistanceText string     `json:"distance_text,omitempty"`
	Mode         TravelMode `json:"mode"`
}

// Slot is one scheduled record: either a class slot (the primary unit of
// assignment) or a derived travel slot immediately preceding one.
type Slot struct {
	sharedDomain.BaseEntity
	userID     uuid.UUID
	date       time.Time // normalized to start of local day
	start      int       // minutes from midnight
	end        int
	isTravel   bool
	subject    string
	status     SlotStatus
	travelInfo *TravelInfo
	priority   int // 1-3, 0 when unset
	color      string
}

// NewClassSlot creates a class slot in proposed state.
func NewClassSlot(userID uuid.UUID, date time.Time, start, end int, subject, color string) (*Slot, error) {
	if end <= start {
		return nil, ErrInvalidSlotRange
	}
	if start%SlotGranularity != 0 || end%SlotGranularity != 0 {
		return nil, ErrSlotGranularity
	}
	return &Slot{
		BaseEntity: sharedDomain.NewBaseEntity(),
		userID:     userID,
		date:       NormalizeDate(date),
		start:      start,
		end:        end,
		subject:    subject,
		status:     SlotProposed,
		color:      color,
	}, nil
}

// NewTravelSlot creates a derived travel slot ending at a class slot's start.
func NewTravelSlot(userID uuid.UUID, date time.Time, start, end int, info TravelInfo, color string) (*Slot, error) {
	if end <= start {
		return nil, ErrInvalidSlotRange
	}
	return &Slot{
		BaseEntity: sharedDomain.NewBaseEntity(),
		userID:     userID,
		date:       NormalizeDate(date),
		start:      start,
		end:        end,
		isTravel:   true,
		subject:    SubjectTravel,
		status:     SlotProposed,
		travelInfo: &info,
		color:      color,
	}, nil
}

func (s *Slot) UserID() uuid.UUID      { return s.userID }
func (s *Slot) Date() time.Time        { return s.date }
func (s *Slot) DateKey() string        { return DateKey(s.date) }
func (s *Slot) Weekday() time.Weekday  { return WeekdayOf(s.date) }
func (s *Slot) Start() int             { return s.start }
func (s *Slot) End() int               { return s.end }
func (s *Slot) IsTravel() bool         { return s.isTravel }
func (s *Slot) Subject() string        { return s.subject }
func (s *Slot) Status() SlotStatus     { return s.status }
func (s *Slot) TravelInfo() *TravelInfo { return s.travelInfo }
func (s *Slot) Priority() int          { return s.priority }
func (s *Slot) Color() string          { return s.color }

// Range returns the slot's [start, end) interval.
func (s *Slot) Range() TimeRange {
	return TimeRange{Start: s.start, End: s.end}
}

// Duration returns the slot length in minutes.
func (s *Slot) Duration() int { return s.end - s.start }

// OverlapsSlot reports whether two slots on the same date and user intersect.
func (s *Slot) OverlapsSlot(other *Slot) bool {
	return s.userID == other.userID &&
		s.DateKey() == other.DateKey() &&
		s.Range().Overlaps(other.Range())
}

// Shift moves the slot forward by delta minutes, preserving its duration.
// Used by the travel recomputer when a travel window hits a blocked interval.
func (s *Slot) Shift(delta int) {
	s.start += delta
	s.end += delta
	s.Touch()
}

// MoveTo places the slot at a new start, preserving its duration.
func (s *Slot) MoveTo(start int) {
	duration := s.Duration()
	s.start = start
	s.end = start + duration
	s.Touch()
}

// Confirm flips the slot to confirmed.
func (s *Slot) Confirm() {
	s.status = SlotConfirmed
	s.Touch()
}

// SetPriority records the preference priority the slot was placed under.
func (s *Slot) SetPriority(p int) {
	s.priority = p
}

// RehydrateSlot recreates a slot from persisted state.
func RehydrateSlot(
	id uuid.UUID,
	userID uuid.UUID,
	date time.Time,
	start, end int,
	isTravel bool,
	subject string,
	status SlotStatus,
	travelInfo *TravelInfo,
	priority int,
	color string,
	createdAt, updatedAt time.Time,
) *Slot {
	return &Slot{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		userID:     userID,
		date:       NormalizeDate(date),
		start:      start,
		end:        end,
		isTravel:   isTravel,
		subject:    subject,
		status:     status,
		travelInfo: travelInfo,
		priority:   priority,
		color:      color,
	}
}
