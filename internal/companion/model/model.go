package model

import "time"

// Role is the viewer's relationship to the active vehicle's owner.
// It gates both actions and data visibility.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleFamily Role = "FAMILY"
	RoleFriend Role = "FRIEND"
)

// User is an authenticated account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OwnerInfo describes the owner of the dashboard context the viewer is
// attached to. For an OWNER session this is the viewer themselves.
type OwnerInfo struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// VehicleDevice is a registered vehicle unit.
type VehicleDevice struct {
	ID          string `json:"_id"`
	VehicleID   string `json:"vehicleId"`
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
}

// VehicleCredentials pairs a physical vehicle unit to the backend.
// Disclosed only transiently; never persisted.
type VehicleCredentials struct {
	VehicleID string `json:"vehicleId"`
	DeviceKey string `json:"deviceKey"`
}

// MemberStatus is the activation state of a member record.
type MemberStatus string

const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
)

// MemberUser is the user record embedded in a member.
type MemberUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Member is a family member or friend registered on an owner's dashboard.
type Member struct {
	ID       string       `json:"_id"`
	User     MemberUser   `json:"userId"`
	Relation string       `json:"relation"`
	Role     Role         `json:"role"`
	Status   MemberStatus `json:"status"`
}

// RequestStatus is the lifecycle status of a car-start request or of a
// single member's approval.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// StartRequest is a time-boxed request for permission to start a vehicle
// after an elevated alcohol reading.
type StartRequest struct {
	ID           string        `json:"requestId"`
	AlcoholLevel float64       `json:"alcoholLevel"`
	RequestedAt  time.Time     `json:"requestedAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Status       RequestStatus `json:"status"`
}

// Approval is one eligible member's standing decision on a StartRequest.
// Immutable once decided; the remote roster is the source of truth.
type Approval struct {
	MemberID  string        `json:"memberId"`
	UserID    string        `json:"userId"`
	Name      string        `json:"name"`
	Relation  string        `json:"relation"`
	Status    RequestStatus `json:"status"`
	DecidedAt *time.Time    `json:"decidedAt"`
}

// VehicleState is the evaluated lock/speed state pushed by the backend.
type VehicleState struct {
	SpeedAllowed float64 `json:"speedAllowed"`
	LockState    string  `json:"lockState"` // LOCKED | LIMITED | UNLOCKED
	Reason       string  `json:"reason"`
}
