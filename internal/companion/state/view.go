package state

import (
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/approval"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/internal/companion/session"
)

// SensorView is the role-gated classification of the effective snapshot.
type SensorView struct {
	VehicleID string `json:"vehicleId,omitempty"`

	Alcohol sensor.Level `json:"alcohol"`
	// AlcoholPercent is only present when the viewer may see the value
	// and a reading exists.
	AlcoholPercent *float64 `json:"alcoholPercent,omitempty"`

	Obstacle sensor.Level `json:"obstacle"`
	Footpath sensor.Level `json:"footpath"`
	Accident sensor.Level `json:"accident"`

	Running bool `json:"running"`

	Speed    float64        `json:"speed"`
	Heading  float64        `json:"heading"`
	Location model.Location `json:"location"`

	ReceivedAt time.Time `json:"receivedAt,omitempty"`
	Overridden bool      `json:"overridden,omitempty"`
}

// RequestView is the current car-start request as the dashboard sees it.
type RequestView struct {
	RequestID    string              `json:"requestId"`
	Phase        string              `json:"phase"`
	Status       model.RequestStatus `json:"status"`
	AlcoholLevel float64             `json:"alcoholLevel"`
	RequestedAt  time.Time           `json:"requestedAt"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	Roster       []model.Approval    `json:"approvals"`
	CanDecide    bool                `json:"canDecide"`
}

// DashboardView is the complete reconciled state for one render.
type DashboardView struct {
	User          *model.User           `json:"user,omitempty"`
	Role          model.Role            `json:"role,omitempty"`
	Capabilities  session.Capabilities  `json:"capabilities"`
	Owner         model.OwnerInfo       `json:"owner"`
	Vehicles      []model.VehicleDevice `json:"vehicles"`
	ActiveVehicle *model.VehicleDevice  `json:"activeVehicle,omitempty"`
	VehicleState  *model.VehicleState   `json:"vehicleState,omitempty"`
	Sensors       SensorView            `json:"sensors"`
	Request       *RequestView          `json:"request,omitempty"`
}

// User returns the signed-in user, or nil.
func (c *Core) User() *model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Role returns the viewer's context role.
func (c *Core) Role() model.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// Capabilities returns the resolved permission flags.
func (c *Core) Capabilities() session.Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

// DashboardOwnerID returns the owner context the viewer is attached to.
func (c *Core) DashboardOwnerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dashboardOwnerID
}

// Vehicles returns a copy of the registered vehicle list.
func (c *Core) Vehicles() []model.VehicleDevice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.VehicleDevice, len(c.vehicles))
	copy(out, c.vehicles)
	return out
}

// ActiveVehicle returns the active vehicle, or nil when none is set.
func (c *Core) ActiveVehicle() *model.VehicleDevice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeVehicle
}

// VehicleState returns the latest evaluated lock/speed verdict, or nil.
func (c *Core) VehicleState() *model.VehicleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vehicleState
}

// Sensors classifies the effective snapshot for the current viewer.
func (c *Core) Sensors() SensorView {
	c.mu.RLock()
	caps := c.caps
	c.mu.RUnlock()

	snap := c.telemetry.Effective()
	if snap == nil {
		return SensorView{
			Alcohol:  alcoholOrHidden(caps, sensor.LevelNotConnected),
			Obstacle: sensor.LevelNotConnected,
			Footpath: sensor.LevelNotConnected,
			Accident: sensor.LevelNotConnected,
		}
	}

	view := SensorView{
		VehicleID:  snap.VehicleID,
		Alcohol:    c.classifier.Alcohol(snap.Alcohol, caps.ViewAlcohol),
		Obstacle:   c.classifier.Obstacle(snap.Ultrasonic.Front, snap.Ultrasonic.Back),
		Footpath:   c.classifier.Footpath(snap.Surface.Left, snap.Surface.Right),
		Accident:   c.classifier.Accident(snap),
		Running:    c.classifier.Running(snap),
		Speed:      snap.Speed,
		Heading:    snap.Heading,
		Location:   snap.Location,
		ReceivedAt: snap.ReceivedAt,
		Overridden: c.telemetry.Overridden(),
	}

	if caps.ViewAlcohol && snap.Alcohol > 0 {
		pct := sensor.AlcoholPercent(snap.Alcohol)
		view.AlcoholPercent = &pct
	}
	return view
}

// Request returns the tracked request view, or nil when idle.
func (c *Core) Request() *RequestView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req := c.tracker.Request()
	if req == nil {
		return nil
	}

	roster := c.tracker.Roster()
	out := &RequestView{
		RequestID:    req.ID,
		Phase:        c.tracker.Phase(),
		Status:       approval.Aggregate(roster),
		AlcoholLevel: req.AlcoholLevel,
		RequestedAt:  req.RequestedAt,
		ExpiresAt:    req.ExpiresAt,
		Roster:       append([]model.Approval(nil), roster...),
	}
	if c.tracker.Phase() != approval.PhasePending {
		out.Status = req.Status
	}
	if c.user != nil {
		out.CanDecide = c.caps.DecideRequests && c.tracker.CanDecide(c.user.ID)
	}
	return out
}

// Dashboard assembles the full view in one pass.
func (c *Core) Dashboard() DashboardView {
	sensors := c.Sensors()
	request := c.Request()

	c.mu.RLock()
	defer c.mu.RUnlock()

	return DashboardView{
		User:          c.user,
		Role:          c.role,
		Capabilities:  c.caps,
		Owner:         c.owner,
		Vehicles:      append([]model.VehicleDevice(nil), c.vehicles...),
		ActiveVehicle: c.activeVehicle,
		VehicleState:  c.vehicleState,
		Sensors:       sensors,
		Request:       request,
	}
}

func alcoholOrHidden(caps session.Capabilities, fallback sensor.Level) sensor.Level {
	if !caps.ViewAlcohol {
		return sensor.LevelHidden
	}
	return fallback
}
