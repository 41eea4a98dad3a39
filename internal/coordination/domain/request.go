package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
)

var (
	ErrRequestNotPending = errors.New("request is not pending")
)

// RequestType classifies a pending exchange request.
type RequestType string

const (
	RequestTimeChange  RequestType = "time_change"
	RequestSlotSwap    RequestType = "slot_swap"
	RequestSlotRelease RequestType = "slot_release"
)

// RequestStatus is the lifecycle state of an exchange request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// SlotSnapshot captures a slot by value. Requests must never reference slots
// by id: deleting the original slot would orphan the request.
type SlotSnapshot struct {
	Date    string `json:"date"` // "YYYY-MM-DD"
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Subject string `json:"subject"`
}

// SnapshotSlot copies a slot into a by-value snapshot.
func SnapshotSlot(s *Slot) SlotSnapshot {
	return SlotSnapshot{
		Date:    s.DateKey(),
		Start:   s.Start(),
		End:     s.End(),
		Subject: s.Subject(),
	}
}

// TargetSlotRef describes the window the requester wants to occupy.
type TargetSlotRef struct {
	Date    string `json:"date"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Subject string `json:"subject,omitempty"`
}

// ExchangeRequest is a pending yield/swap/release request awaiting the
// counterparty's decision.
type ExchangeRequest struct {
	sharedDomain.BaseEntity
	roomID         uuid.UUID
	requesterID    uuid.UUID
	targetUserID   uuid.UUID // uuid.Nil for slot_release
	requestType    RequestType
	requesterSlots []SlotSnapshot
	target         TargetSlotRef
	message        string
	status         RequestStatus
	rejectReason   string
}

// NewExchangeRequest creates a pending request.
func NewExchangeRequest(
	roomID, requesterID, targetUserID uuid.UUID,
	requestType RequestType,
	requesterSlots []SlotSnapshot,
	target TargetSlotRef,
	message string,
) *ExchangeRequest {
	return &ExchangeRequest{
		BaseEntity:     sharedDomain.NewBaseEntity(),
		roomID:         roomID,
		requesterID:    requesterID,
		targetUserID:   targetUserID,
		requestType:    requestType,
		requesterSlots: requesterSlots,
		target:         target,
		message:        message,
		status:         RequestPending,
	}
}

func (r *ExchangeRequest) RoomID() uuid.UUID              { return r.roomID }
func (r *ExchangeRequest) RequesterID() uuid.UUID         { return r.requesterID }
func (r *ExchangeRequest) TargetUserID() uuid.UUID        { return r.targetUserID }
func (r *ExchangeRequest) RequestType() RequestType       { return r.requestType }
func (r *ExchangeRequest) RequesterSlots() []SlotSnapshot { return r.requesterSlots }
func (r *ExchangeRequest) Target() TargetSlotRef          { return r.target }
func (r *ExchangeRequest) Message() string                { return r.message }
func (r *ExchangeRequest) Status() RequestStatus          { return r.status }
func (r *ExchangeRequest) RejectReason() string           { return r.rejectReason }

// IsPending reports whether the request still awaits a decision.
func (r *ExchangeRequest) IsPending() bool {
	return r.status == RequestPending
}

// Approve transitions pending -> approved.
func (r *ExchangeRequest) Approve() error {
	if !r.IsPending() {
		return ErrRequestNotPending
	}
	r.status = RequestApproved
	r.Touch()
	return nil
}

// Reject transitions pending -> rejected, recording the reason.
func (r *ExchangeRequest) Reject(reason string) error {
	if !r.IsPending() {
		return ErrRequestNotPending
	}
	r.status = RequestRejected
	r.rejectReason = reason
	r.Touch()
	return nil
}

// Cancel transitions pending -> cancelled (requester withdrew).
func (r *ExchangeRequest) Cancel() error {
	if !r.IsPending() {
		return ErrRequestNotPending
	}
	r.status = RequestCancelled
	r.Touch()
	return nil
}

// RehydrateExchangeRequest recreates a request from persisted state.
func RehydrateExchangeRequest(
	id uuid.UUID,
	roomID, requesterID, targetUserID uuid.UUID,
	requestType RequestType,
	requesterSlots []SlotSnapshot,
	target TargetSlotRef,
	message string,
	status RequestStatus,
	rejectReason string,
	createdAt, updatedAt time.Time,
) *ExchangeRequest {
	return &ExchangeRequest{
		BaseEntity:     sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		roomID:         roomID,
		requesterID:    requesterID,
		targetUserID:   targetUserID,
		requestType:    requestType,
		requesterSlots: requesterSlots,
		target:         target,
		message:        message,
		status:         status,
		rejectReason:   rejectReason,
	}
}
