package state

import (
	"context"

	"github.com/safedrive-io/safedrive/internal/companion/approval"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/pkg/metrics"
)

// Push-event entry points. The stream layer calls these from transport
// goroutines; each one validates, guards and applies under the core
// mutex. Events that fail a guard are dropped and counted, never
// partially applied.

// HandleSensorUpdate caches a telemetry snapshot. It becomes the live
// snapshot when it belongs to the active vehicle, or when no active
// vehicle has been announced yet.
func (c *Core) HandleSensorUpdate(ctx context.Context, snap *model.SensorSnapshot) {
	if snap == nil || snap.VehicleID == "" {
		metrics.EventsDroppedTotal.WithLabelValues("decode_error").Inc()
		return
	}

	snap.ReceivedAt = c.clock.Now()
	live := c.telemetry.Put(snap)
	metrics.EventsAppliedTotal.WithLabelValues("sensor").Inc()

	if !live {
		return
	}

	if c.classifier.ImpactTriggered(snap) {
		mag, _ := snap.AccelMagnitude()
		c.log.Warn("Impact detected on active vehicle",
			"vehicleID", snap.VehicleID, "magnitude", mag,
			"lat", snap.Location.Lat, "lng", snap.Location.Lng)
	}
}

// HandleRequestNew starts tracking a request announced on the owner's
// channel, then pulls its decision roster.
func (c *Core) HandleRequestNew(ctx context.Context, ev *RequestNewEvent) {
	if !c.guardOwner(ev.OwnerID, "request_new") {
		return
	}

	req := &model.StartRequest{
		ID:           ev.RequestID,
		AlcoholLevel: ev.AlcoholLevel,
		RequestedAt:  ev.RequestedAt,
		ExpiresAt:    ev.ExpiresAt,
		Status:       model.StatusPending,
	}

	c.mu.Lock()
	if !c.tracker.Tracking(req.ID) {
		c.tracker.Reset(ctx)
	}
	err := c.tracker.Open(ctx, req, nil)
	c.mu.Unlock()
	if err != nil {
		c.log.Error(err, "Failed to track announced request", "requestID", ev.RequestID)
		return
	}

	metrics.EventsAppliedTotal.WithLabelValues("request_new").Inc()
	c.log.Info("Car-start request announced", "requestID", ev.RequestID, "expiresAt", ev.ExpiresAt)

	c.pullRoster(ctx, ev.RequestID)
}

// HandleRequestUpdate applies a status patch to the tracked request.
// Patches for any other request are ignored.
func (c *Core) HandleRequestUpdate(ctx context.Context, ev *RequestUpdateEvent) {
	if !c.guardOwner(ev.OwnerID, "request_update") {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.Tracking(ev.RequestID) {
		metrics.EventsDroppedTotal.WithLabelValues("unknown_request").Inc()
		return
	}

	metrics.EventsAppliedTotal.WithLabelValues("request_update").Inc()
	c.resolveLocked(ctx, ev.Status)
}

// HandleApprovalUpdate patches one member's decision and re-aggregates.
func (c *Core) HandleApprovalUpdate(ctx context.Context, ev *ApprovalUpdateEvent) {
	if !c.guardOwner(ev.OwnerID, "request_approval") {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.Tracking(ev.RequestID) {
		metrics.EventsDroppedTotal.WithLabelValues("unknown_request").Inc()
		return
	}

	c.tracker.PatchStatus(ev.MemberID, ev.Status, ev.DecidedAt)
	metrics.EventsAppliedTotal.WithLabelValues("request_approval").Inc()

	c.resolveLocked(ctx, approval.Aggregate(c.tracker.Roster()))
}

// HandleVehicleState stores the backend's evaluated lock/speed verdict.
func (c *Core) HandleVehicleState(ctx context.Context, ev *VehicleStateEvent) {
	if !c.guardOwner(ev.OwnerID, "vehicle_state") {
		return
	}

	c.mu.Lock()
	st := ev.State
	c.vehicleState = &st
	c.mu.Unlock()

	metrics.EventsAppliedTotal.WithLabelValues("vehicle_state").Inc()
	c.log.Info("Vehicle state updated", "lockState", st.LockState, "speedAllowed", st.SpeedAllowed)
}

// HandleActiveVehicle switches the active vehicle announced on the
// owner's channel. Non-owner viewers only ever see the active vehicle,
// so their vehicle list collapses to it.
func (c *Core) HandleActiveVehicle(ctx context.Context, ev *ActiveVehicleEvent) {
	if !c.guardOwner(ev.OwnerID, "active_vehicle") {
		return
	}

	c.mu.Lock()
	v := ev.ActiveVehicle
	c.activeVehicle = &v
	if c.role != model.RoleOwner {
		c.vehicles = []model.VehicleDevice{v}
	}
	c.mu.Unlock()

	c.telemetry.SetActive(v.VehicleID)
	metrics.EventsAppliedTotal.WithLabelValues("active_vehicle").Inc()
	c.log.Info("Active vehicle switched", "vehicleID", v.VehicleID, "name", v.Name)
}

// guardOwner drops events addressed to a different dashboard context.
// The channel is shared, so cross-context frames are expected, not an
// error.
func (c *Core) guardOwner(ownerID, kind string) bool {
	c.mu.RLock()
	mine := c.dashboardOwnerID
	c.mu.RUnlock()

	if ownerID == "" || mine == "" || ownerID == mine {
		return true
	}
	metrics.EventsDroppedTotal.WithLabelValues("foreign_context").Inc()
	c.log.Debug("Dropping event for foreign context", "kind", kind, "ownerID", ownerID)
	return false
}
