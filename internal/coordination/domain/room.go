package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
)

var (
	ErrSlotOverlap     = errors.New("slot overlaps an existing slot for the same user")
	ErrAlreadyMember   = errors.New("user is already a room member")
	ErrRoomConfirmed   = errors.New("room schedule is already confirmed")
	ErrNoProposedSlots = errors.New("no proposed slots to confirm")
)

// RoomState tracks whether the weekly schedule is still a proposal.
type RoomState string

const (
	RoomDraft     RoomState = "draft"
	RoomConfirmed RoomState = "confirmed"
)

// Room is the aggregate root of a coordination room. It owns the slot store:
// every class and travel slot lives here, and all mutation goes through the
// aggregate so overlap and ordering invariants hold.
type Room struct {
	sharedDomain.BaseAggregateRoot
	name                string
	ownerID             uuid.UUID
	inviteCode          string
	members             []Member
	settings            RoomSettings
	travelMode          TravelMode
	confirmedTravelMode TravelMode
	state               RoomState
	confirmedAt         *time.Time
	slots               []*Slot
	requests            []*ExchangeRequest
}

// NewRoom creates a draft room with the owner as its first member.
func NewRoom(name string, ownerID uuid.UUID, inviteCode, ownerColor string) *Room {
	return &Room{
		BaseAggregateRoot:   sharedDomain.NewBaseAggregateRoot(),
		name:                name,
		ownerID:             ownerID,
		inviteCode:          inviteCode,
		members:             []Member{NewMember(ownerID, ownerColor)},
		settings:            DefaultRoomSettings(),
		travelMode:          TravelNone,
		confirmedTravelMode: TravelNone,
		state:               RoomDraft,
	}
}

func (r *Room) Name() string                    { return r.name }
func (r *Room) OwnerID() uuid.UUID              { return r.ownerID }
func (r *Room) InviteCode() string              { return r.inviteCode }
func (r *Room) Members() []Member               { return r.members }
func (r *Room) Settings() RoomSettings          { return r.settings }
func (r *Room) TravelMode() TravelMode          { return r.travelMode }
func (r *Room) ConfirmedTravelMode() TravelMode { return r.confirmedTravelMode }
func (r *Room) State() RoomState                { return r.state }
func (r *Room) ConfirmedAt() *time.Time         { return r.confirmedAt }
func (r *Room) Slots() []*Slot                  { return r.slots }
func (r *Room) Requests() []*ExchangeRequest    { return r.requests }

// IsOwner reports whether userID owns the room.
func (r *Room) IsOwner(userID uuid.UUID) bool { return r.ownerID == userID }

// IsMember reports whether userID participates in the room.
func (r *Room) IsMember(userID uuid.UUID) bool {
	for _, m := range r.members {
		if m.UserID() == userID {
			return true
		}
	}
	return false
}

// MemberOf returns the member record for userID.
func (r *Room) MemberOf(userID uuid.UUID) (Member, bool) {
	for _, m := range r.members {
		if m.UserID() == userID {
			return m, true
		}
	}
	return Member{}, false
}

// AddMember joins a user to the room.
func (r *Room) AddMember(userID uuid.UUID, color string) error {
	if r.IsMember(userID) {
		return ErrAlreadyMember
	}
	r.members = append(r.members, NewMember(userID, color))
	r.Touch()
	return nil
}

// UpdateSettings replaces the room-level scheduling parameters.
func (r *Room) UpdateSettings(settings RoomSettings) {
	r.settings = settings
	r.Touch()
}

// SetTravelMode updates the current (pre-confirmation) travel mode.
func (r *Room) SetTravelMode(mode TravelMode) {
	r.travelMode = mode
	r.Touch()
}

// EffectiveTravelMode is the mode travel computation uses: the mode locked in
// at confirmation once the room is confirmed, otherwise the room's current
// mode. A room confirmed without travel stays without travel even if the
// current mode changes afterwards.
func (r *Room) EffectiveTravelMode() TravelMode {
	if r.state == RoomConfirmed {
		return r.confirmedTravelMode
	}
	return r.travelMode
}

// AddSlot inserts a slot, rejecting any per-user same-date overlap with an
// existing class or travel slot.
func (r *Room) AddSlot(slot *Slot) error {
	for _, existing := range r.slots {
		if existing.OverlapsSlot(slot) {
			return ErrSlotOverlap
		}
	}
	r.slots = append(r.slots, slot)
	r.Touch()
	return nil
}

// ForceAddSlot inserts a slot without overlap checking. Callers must have
// already cleared the window, e.g. the travel recomputer after removing the
// previous travel slots.
func (r *Room) ForceAddSlot(slot *Slot) {
	r.slots = append(r.slots, slot)
	r.Touch()
}

// RemoveSlots deletes slots by id. Missing ids are ignored so removal is
// idempotent.
func (r *Room) RemoveSlots(ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.slots[:0]
	for _, s := range r.slots {
		if _, ok := drop[s.ID()]; !ok {
			kept = append(kept, s)
		}
	}
	r.slots = kept
	r.Touch()
}

// SlotByID finds a slot by id.
func (r *Room) SlotByID(id uuid.UUID) (*Slot, bool) {
	for _, s := range r.slots {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// SlotsOn returns the class slots on a date, sorted by start time.
func (r *Room) SlotsOn(date time.Time) []*Slot {
	return r.slotsOn(date, false)
}

// TravelSlotsOn returns the travel slots on a date, sorted by start time.
func (r *Room) TravelSlotsOn(date time.Time) []*Slot {
	return r.slotsOn(date, true)
}

func (r *Room) slotsOn(date time.Time, travel bool) []*Slot {
	key := DateKey(date)
	var out []*Slot
	for _, s := range r.slots {
		if s.IsTravel() == travel && s.DateKey() == key {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start() < out[j].Start() })
	return out
}

// UserSlotsOn returns one user's class slots on a date, sorted by start time.
func (r *Room) UserSlotsOn(userID uuid.UUID, date time.Time) []*Slot {
	var out []*Slot
	for _, s := range r.SlotsOn(date) {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out
}

// RemoveTravelSlotsOn deletes travel slots on a date. When onlyUser is
// non-nil, only that user's travel slots are removed.
func (r *Room) RemoveTravelSlotsOn(date time.Time, onlyUser *uuid.UUID) {
	key := DateKey(date)
	kept := r.slots[:0]
	for _, s := range r.slots {
		if s.IsTravel() && s.DateKey() == key && (onlyUser == nil || s.UserID() == *onlyUser) {
			continue
		}
		kept = append(kept, s)
	}
	r.slots = kept
	r.Touch()
}

// ContinuousBlock is a maximal run of back-to-back class slots belonging to
// one user on one date.
type ContinuousBlock struct {
	UserID uuid.UUID
	Date   time.Time
	Slots  []*Slot
}

// Start returns the block's first minute.
func (b ContinuousBlock) Start() int { return b.Slots[0].Start() }

// End returns the block's last minute (exclusive).
func (b ContinuousBlock) End() int { return b.Slots[len(b.Slots)-1].End() }

// Duration returns the total block length in minutes.
func (b ContinuousBlock) Duration() int { return b.End() - b.Start() }

// Range returns the block's [start, end) interval.
func (b ContinuousBlock) Range() TimeRange {
	return TimeRange{Start: b.Start(), End: b.End()}
}

// ContinuousBlocks groups a user's class slots on a date into maximal
// adjacent runs. Exchange moves operate on whole blocks so multi-slot
// sessions travel together.
func (r *Room) ContinuousBlocks(userID uuid.UUID, date time.Time) []ContinuousBlock {
	slots := r.UserSlotsOn(userID, date)
	var blocks []ContinuousBlock
	for _, s := range slots {
		if n := len(blocks); n > 0 && blocks[n-1].End() == s.Start() {
			blocks[n-1].Slots = append(blocks[n-1].Slots, s)
			continue
		}
		blocks = append(blocks, ContinuousBlock{UserID: userID, Date: NormalizeDate(date), Slots: []*Slot{s}})
	}
	return blocks
}

// BlockContaining returns the user's continuous block whose range covers the
// given start minute.
func (r *Room) BlockContaining(userID uuid.UUID, date time.Time, startMin int) (ContinuousBlock, bool) {
	for _, b := range r.ContinuousBlocks(userID, date) {
		if b.Start() <= startMin && startMin < b.End() {
			return b, true
		}
	}
	return ContinuousBlock{}, false
}

// ClearProposedSlots drops every proposed class and travel slot, keeping
// confirmed ones. The scheduler calls this before a fresh run.
func (r *Room) ClearProposedSlots() {
	kept := r.slots[:0]
	for _, s := range r.slots {
		if s.Status() == SlotConfirmed {
			kept = append(kept, s)
		}
	}
	r.slots = kept
	r.Touch()
}

// Confirm locks in the proposed schedule: every slot flips to confirmed, the
// current travel mode is captured as the confirmed mode, and the room leaves
// draft state.
func (r *Room) Confirm(now time.Time) error {
	var proposed int
	for _, s := range r.slots {
		if s.Status() == SlotProposed {
			proposed++
		}
	}
	if proposed == 0 {
		return ErrNoProposedSlots
	}
	for _, s := range r.slots {
		if s.Status() == SlotProposed {
			s.Confirm()
		}
	}
	r.confirmedTravelMode = r.travelMode
	r.state = RoomConfirmed
	r.confirmedAt = &now
	r.Touch()
	r.AddDomainEvent(NewRoomConfirmedEvent(r.ID(), r.ownerID, r.confirmedTravelMode))
	return nil
}

// AddRequest stores a pending exchange request on the aggregate.
func (r *Room) AddRequest(req *ExchangeRequest) {
	r.requests = append(r.requests, req)
	r.Touch()
}

// RequestByID finds a request by id.
func (r *Room) RequestByID(id uuid.UUID) (*ExchangeRequest, bool) {
	for _, req := range r.requests {
		if req.ID() == id {
			return req, true
		}
	}
	return nil, false
}

// PendingRequests returns the requests still awaiting a decision.
func (r *Room) PendingRequests() []*ExchangeRequest {
	var out []*ExchangeRequest
	for _, req := range r.requests {
		if req.IsPending() {
			out = append(out, req)
		}
	}
	return out
}

// RehydrateRoom recreates a room from persisted state.
func RehydrateRoom(
	id uuid.UUID,
	name string,
	ownerID uuid.UUID,
	inviteCode string,
	members []Member,
	settings RoomSettings,
	travelMode, confirmedTravelMode TravelMode,
	state RoomState,
	confirmedAt *time.Time,
	slots []*Slot,
	requests []*ExchangeRequest,
	version int,
	createdAt, updatedAt time.Time,
) *Room {
	return &Room{
		BaseAggregateRoot:   sharedDomain.RehydrateBaseAggregateRoot(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), version),
		name:                name,
		ownerID:             ownerID,
		inviteCode:          inviteCode,
		members:             members,
		settings:            settings,
		travelMode:          travelMode,
		confirmedTravelMode: confirmedTravelMode,
		state:               state,
		confirmedAt:         confirmedAt,
		slots:               slots,
		requests:            requests,
	}
}
