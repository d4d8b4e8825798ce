package api

import (
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// LoginRequest is the credentials payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the authenticated user.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// RegisterRequest is the account-creation payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// DashboardContext is the answer of GET /auth/context: who the viewer is
// relative to the active dashboard and what that dashboard contains.
type DashboardContext struct {
	ContextRole      model.Role            `json:"contextRole"`
	DashboardOwnerID string                `json:"dashboardOwnerId"`
	Owner            model.OwnerInfo       `json:"owner"`
	Vehicles         []model.VehicleDevice `json:"vehicles"`
	ActiveVehicle    *model.VehicleDevice  `json:"activeVehicle"`
}

// AddVehicleRequest registers a new vehicle unit.
type AddVehicleRequest struct {
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
}

// AddMemberRequest attaches a user to the dashboard by phone number.
type AddMemberRequest struct {
	Phone    string     `json:"phone"`
	Relation string     `json:"relation"`
	Role     model.Role `json:"role"`
}

// UpdateMemberRequest patches an existing member record. Nil fields are
// left unchanged.
type UpdateMemberRequest struct {
	Relation *string             `json:"relation,omitempty"`
	Role     *model.Role         `json:"role,omitempty"`
	Status   *model.MemberStatus `json:"status,omitempty"`
}

// AskRequest opens a car-start request after an elevated reading.
type AskRequest struct {
	AlcoholLevel float64 `json:"alcoholLevel"`
}

// AskResponse identifies the freshly created request and its deadline.
type AskResponse struct {
	RequestID   string    `json:"requestId"`
	RequestedAt time.Time `json:"requestedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ActiveRequestInfo is the answer of GET /requests/active. The endpoint
// returns a JSON null when no request is open.
type ActiveRequestInfo struct {
	RequestID string              `json:"requestId"`
	Status    model.RequestStatus `json:"status"`
}

// ApprovalsResponse is the full decision roster for one request.
type ApprovalsResponse struct {
	Approvals    []model.Approval    `json:"approvals"`
	AlcoholLevel float64             `json:"alcoholLevel"`
	RequestedAt  time.Time           `json:"requestedAt"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	Status       model.RequestStatus `json:"status"`
}

// DecisionRequest submits one member's verdict on a request.
type DecisionRequest struct {
	RequestID string              `json:"requestId"`
	MemberID  string              `json:"memberId"`
	Decision  model.RequestStatus `json:"decision"`
}

// CalibrationRequest uploads adjusted classification thresholds for a
// vehicle unit.
type CalibrationRequest struct {
	AlcoholSafe      float64 `json:"alcoholSafe"`
	AlcoholWarning   float64 `json:"alcoholWarning"`
	ClearanceSafe    float64 `json:"clearanceSafe"`
	ClearanceWarning float64 `json:"clearanceWarning"`
	ImpactTrigger    float64 `json:"impactTrigger"`
}

// errorResponse is the backend's error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
