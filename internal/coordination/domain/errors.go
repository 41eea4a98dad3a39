package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for lookups and authorization. Handlers map these to HTTP
// status codes.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrNotMember       = errors.New("not a room member")
	ErrSlotNotFound    = errors.New("slot not found")
)

// Reason codes attached to rejection errors. Clients branch on these, so they
// are part of the wire contract and must never be renamed.
const (
	ReasonInvalidIntent            = "invalid_intent"
	ReasonSourceSlotNotFound       = "source_slot_not_found"
	ReasonTargetBlocked            = "target_blocked"
	ReasonOutsidePreference        = "outside_preference"
	ReasonOwnerPreferenceConflict  = "owner_preference_conflict"
	ReasonTravelOwnerPrefConflict  = "travel_time_owner_preference_conflict"
	ReasonTravelPreferenceConflict = "travel_time_preference_conflict"
	ReasonTravelConflict           = "travel_time_conflict"
	ReasonAlreadyAtTarget          = "already_at_target"
	ReasonStaleRequest             = "stale_request"
	ReasonNoPlacement              = "no_placement"
	ReasonMissingCoordinates       = "missing_coordinates"
)

// RejectionError is a user-facing refusal: the operation was understood but
// cannot be performed. Message is shown verbatim to the user (Korean), Reason
// is the machine-readable code.
type RejectionError struct {
	Reason  string
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// Rejectf builds a rejection with a formatted user-facing message.
func Rejectf(reason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a RejectionError when it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
