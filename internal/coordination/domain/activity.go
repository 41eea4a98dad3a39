package domain

import (
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
)

// ActivityKind classifies an activity feed entry.
type ActivityKind string

const (
	ActivitySchedule   ActivityKind = "schedule"
	ActivityExchange   ActivityKind = "exchange"
	ActivityRequest    ActivityKind = "request"
	ActivityResolution ActivityKind = "resolution"
	ActivityConfirm    ActivityKind = "confirm"
)

// ActivityLog is one entry in a room's activity feed. Detail is shown to
// members verbatim, so writers produce user-facing (Korean) text.
type ActivityLog struct {
	sharedDomain.BaseEntity
	roomID  uuid.UUID
	actorID uuid.UUID
	kind    ActivityKind
	detail  string
}

// NewActivityLog records an action in the room feed.
func NewActivityLog(roomID, actorID uuid.UUID, kind ActivityKind, detail string) *ActivityLog {
	return &ActivityLog{
		BaseEntity: sharedDomain.NewBaseEntity(),
		roomID:     roomID,
		actorID:    actorID,
		kind:       kind,
		detail:     detail,
	}
}

func (a *ActivityLog) RoomID() uuid.UUID  { return a.roomID }
func (a *ActivityLog) ActorID() uuid.UUID { return a.actorID }
func (a *ActivityLog) Kind() ActivityKind { return a.kind }
func (a *ActivityLog) Detail() string     { return a.detail }

// RehydrateActivityLog recreates an entry from persisted state.
func RehydrateActivityLog(id, roomID, actorID uuid.UUID, kind ActivityKind, detail string, createdAt time.Time) *ActivityLog {
	return &ActivityLog{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		roomID:     roomID,
		actorID:    actorID,
		kind:       kind,
		detail:     detail,
	}
}
