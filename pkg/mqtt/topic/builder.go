package topic

import (
	"fmt"
)

// Constants defining the standard topic segments.
// These act as the protocol contract between the SafeDrive backend and its
// companions. Changing these values breaks compatibility with deployed units.
const (
	// SuffixSensor carries telemetry snapshots from a vehicle unit.
	// Structure: {root}/sensor/{vehicleID}
	SuffixSensor = "sensor"

	// SuffixRequestNew announces a freshly created car-start request.
	// Structure: {root}/request/new/{ownerID}
	SuffixRequestNew = "request/new"

	// SuffixRequestUpdate carries status patches for the active request.
	// Structure: {root}/request/update/{ownerID}
	SuffixRequestUpdate = "request/update"

	// SuffixRequestApproval signals that a member decided on a request.
	// Structure: {root}/request/approval/{ownerID}
	SuffixRequestApproval = "request/approval"

	// SuffixVehicleState carries evaluated vehicle lock/speed state.
	// Structure: {root}/vehicle/state/{ownerID}
	SuffixVehicleState = "vehicle/state"

	// SuffixActiveVehicle announces an active-vehicle change for an owner
	// context. Structure: {root}/vehicle/active/{ownerID}
	SuffixActiveVehicle = "vehicle/active"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
// It keeps the topic topology in one place instead of scattering
// fmt.Sprintf calls across the stream layer.
type Builder struct {
	// root is the base namespace for all topics (e.g., "safedrive/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Sensor returns the telemetry topic for a specific vehicle.
func (b *Builder) Sensor(vehicleID string) string {
	return b.build(SuffixSensor, vehicleID)
}

// SensorWildcard returns the filter matching telemetry from ALL vehicles
// visible on the channel. Result: {root}/sensor/+
func (b *Builder) SensorWildcard() string {
	return b.build(SuffixSensor, Wildcard)
}

// RequestNew returns the request-announcement topic for an owner context.
func (b *Builder) RequestNew(ownerID string) string {
	return b.build(SuffixRequestNew, ownerID)
}

// RequestUpdate returns the request-status topic for an owner context.
func (b *Builder) RequestUpdate(ownerID string) string {
	return b.build(SuffixRequestUpdate, ownerID)
}

// RequestApproval returns the approval-decision topic for an owner context.
func (b *Builder) RequestApproval(ownerID string) string {
	return b.build(SuffixRequestApproval, ownerID)
}

// VehicleState returns the evaluated-vehicle-state topic for an owner context.
func (b *Builder) VehicleState(ownerID string) string {
	return b.build(SuffixVehicleState, ownerID)
}

// ActiveVehicle returns the active-vehicle-change topic for an owner context.
func (b *Builder) ActiveVehicle(ownerID string) string {
	return b.build(SuffixActiveVehicle, ownerID)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
