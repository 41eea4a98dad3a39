package domain

import (
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
)

// Routing keys for coordination events.
const (
	ScheduleUpdatedKey   = "coordination.schedule.updated"
	RequestCreatedKey    = "coordination.request.created"
	RequestResolvedKey   = "coordination.request.resolved"
	SuggestionUpdatedKey = "coordination.suggestion.updated"
	RoomConfirmedKey     = "coordination.room.confirmed"
)

// ScheduleUpdatedEvent fires whenever slots in a room changed: a fresh
// schedule run, an immediate exchange, or an approved request.
type ScheduleUpdatedEvent struct {
	sharedDomain.BaseEvent
	RoomID        uuid.UUID `json:"room_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	AffectedDates []string  `json:"affected_dates"`
	Trigger       string    `json:"trigger"` // "schedule" | "exchange" | "approval" | "travel_mode"
}

func NewScheduleUpdatedEvent(roomID, actorID uuid.UUID, affectedDates []string, trigger string) *ScheduleUpdatedEvent {
	return &ScheduleUpdatedEvent{
		BaseEvent:     sharedDomain.NewBaseEvent(roomID, "coordination.room", ScheduleUpdatedKey),
		RoomID:        roomID,
		ActorID:       actorID,
		AffectedDates: affectedDates,
		Trigger:       trigger,
	}
}

// RequestCreatedEvent fires when a yield request is stored for approval.
type RequestCreatedEvent struct {
	sharedDomain.BaseEvent
	RoomID       uuid.UUID `json:"room_id"`
	RequestID    uuid.UUID `json:"request_id"`
	RequesterID  uuid.UUID `json:"requester_id"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	RequestType  string    `json:"request_type"`
}

func NewRequestCreatedEvent(roomID uuid.UUID, req *ExchangeRequest) *RequestCreatedEvent {
	return &RequestCreatedEvent{
		BaseEvent:    sharedDomain.NewBaseEvent(roomID, "coordination.room", RequestCreatedKey),
		RoomID:       roomID,
		RequestID:    req.ID(),
		RequesterID:  req.RequesterID(),
		TargetUserID: req.TargetUserID(),
		RequestType:  string(req.RequestType()),
	}
}

// RequestResolvedEvent fires when a pending request is approved, rejected or
// cancelled.
type RequestResolvedEvent struct {
	sharedDomain.BaseEvent
	RoomID      uuid.UUID `json:"room_id"`
	RequestID   uuid.UUID `json:"request_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Resolution  string    `json:"resolution"` // "approved" | "rejected" | "cancelled"
	Reason      string    `json:"reason,omitempty"`
}

func NewRequestResolvedEvent(roomID uuid.UUID, req *ExchangeRequest, reason string) *RequestResolvedEvent {
	return &RequestResolvedEvent{
		BaseEvent:   sharedDomain.NewBaseEvent(roomID, "coordination.room", RequestResolvedKey),
		RoomID:      roomID,
		RequestID:   req.ID(),
		RequesterID: req.RequesterID(),
		Resolution:  string(req.Status()),
		Reason:      reason,
	}
}

// SuggestionUpdatedEvent fires when the scheduler produced a new proposed
// week for review.
type SuggestionUpdatedEvent struct {
	sharedDomain.BaseEvent
	RoomID    uuid.UUID `json:"room_id"`
	WeekStart string    `json:"week_start"`
	SlotCount int       `json:"slot_count"`
}

func NewSuggestionUpdatedEvent(roomID uuid.UUID, weekStart time.Time, slotCount int) *SuggestionUpdatedEvent {
	return &SuggestionUpdatedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(roomID, "coordination.room", SuggestionUpdatedKey),
		RoomID:    roomID,
		WeekStart: DateKey(weekStart),
		SlotCount: slotCount,
	}
}

// RoomConfirmedEvent fires when the owner confirms the proposed schedule.
type RoomConfirmedEvent struct {
	sharedDomain.BaseEvent
	RoomID     uuid.UUID  `json:"room_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	TravelMode TravelMode `json:"travel_mode"`
}

func NewRoomConfirmedEvent(roomID, ownerID uuid.UUID, mode TravelMode) *RoomConfirmedEvent {
	return &RoomConfirmedEvent{
		BaseEvent:  sharedDomain.NewBaseEvent(roomID, "coordination.room", RoomConfirmedKey),
		RoomID:     roomID,
		OwnerID:    ownerID,
		TravelMode: mode,
	}
}
