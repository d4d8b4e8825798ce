package state

import (
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Push event payloads as they arrive on the event stream. The stream
// layer decodes raw frames into these and hands them to the core's
// named handlers.

// RequestNewEvent announces a freshly created car-start request on the
// owner's channel.
type RequestNewEvent struct {
	OwnerID      string    `json:"ownerId"`
	RequestID    string    `json:"requestId"`
	AlcoholLevel float64   `json:"alcoholLevel"`
	RequestedAt  time.Time `json:"requestedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// RequestUpdateEvent patches the status of an open request.
type RequestUpdateEvent struct {
	OwnerID   string              `json:"ownerId"`
	RequestID string              `json:"requestId"`
	Status    model.RequestStatus `json:"status"`
}

// ApprovalUpdateEvent signals one member's decision on a request.
type ApprovalUpdateEvent struct {
	OwnerID   string              `json:"ownerId"`
	RequestID string              `json:"requestId"`
	MemberID  string              `json:"memberId"`
	Status    model.RequestStatus `json:"status"`
	DecidedAt *time.Time          `json:"decidedAt"`
}

// VehicleStateEvent carries the backend's evaluated lock/speed verdict.
type VehicleStateEvent struct {
	OwnerID string             `json:"ownerId"`
	State   model.VehicleState `json:"state"`
}

// ActiveVehicleEvent announces an active-vehicle switch on the owner's
// channel.
type ActiveVehicleEvent struct {
	OwnerID       string              `json:"ownerId"`
	ActiveVehicle model.VehicleDevice `json:"activeVehicle"`
}
