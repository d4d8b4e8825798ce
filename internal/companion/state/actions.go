package state

import (
	"context"
	"fmt"

	"github.com/safedrive-io/safedrive/internal/companion/api"
	"github.com/safedrive-io/safedrive/internal/companion/credential"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/internal/companion/session"
)

// User-initiated operations. Each one re-checks the viewer's capability
// before calling out; the backend enforces the same rules, the local
// check just fails fast.

// SwitchVehicle makes another registered vehicle the active one.
func (c *Core) SwitchVehicle(ctx context.Context, vehicleID string) error {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "switch vehicles"); err != nil {
		return err
	}

	v, err := c.api.SetActiveVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.activeVehicle = v
	c.mu.Unlock()
	c.telemetry.SetActive(v.VehicleID)

	c.log.Info("Active vehicle switched", "vehicleID", v.VehicleID, "name", v.Name)
	return nil
}

// AddVehicle registers a new vehicle unit and appends it to the list.
func (c *Core) AddVehicle(ctx context.Context, name, plateNumber string) (*model.VehicleDevice, error) {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "add vehicles"); err != nil {
		return nil, err
	}

	v, err := c.api.AddVehicle(ctx, &api.AddVehicleRequest{Name: name, PlateNumber: plateNumber})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.vehicles = append(c.vehicles, *v)
	c.mu.Unlock()
	return v, nil
}

// DeleteVehicle removes a vehicle unit. Deleting the active vehicle
// leaves no active selection until the backend announces a new one.
func (c *Core) DeleteVehicle(ctx context.Context, id string) error {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "delete vehicles"); err != nil {
		return err
	}

	if err := c.api.DeleteVehicle(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.vehicles[:0]
	for _, v := range c.vehicles {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	c.vehicles = kept
	if c.activeVehicle != nil && c.activeVehicle.ID == id {
		c.activeVehicle = nil
		c.telemetry.SetActive("")
	}
	c.mu.Unlock()
	return nil
}

// Members pulls the current member roster.
func (c *Core) Members(ctx context.Context) ([]model.Member, error) {
	return c.api.Members(ctx)
}

// AddMember attaches a registered user by phone number.
func (c *Core) AddMember(ctx context.Context, phone, relation string, role model.Role) (*model.Member, error) {
	if err := c.require(func(caps capabilities) bool { return caps.ManageMembers }, "add members"); err != nil {
		return nil, err
	}
	return c.api.AddMember(ctx, &api.AddMemberRequest{Phone: phone, Relation: relation, Role: role})
}

// UpdateMember patches an existing member record.
func (c *Core) UpdateMember(ctx context.Context, memberID string, req *api.UpdateMemberRequest) (*model.Member, error) {
	if err := c.require(func(caps capabilities) bool { return caps.EditMembers }, "edit members"); err != nil {
		return nil, err
	}
	return c.api.UpdateMember(ctx, memberID, req)
}

// DeleteMember detaches a member from the dashboard.
func (c *Core) DeleteMember(ctx context.Context, memberID string) error {
	if err := c.require(func(caps capabilities) bool { return caps.ManageMembers }, "remove members"); err != nil {
		return err
	}
	return c.api.DeleteMember(ctx, memberID)
}

// UploadCalibration pushes the given classification thresholds to a
// vehicle unit. The local classifier keeps its own thresholds; the
// unit echoes the applied values back through the telemetry stream.
func (c *Core) UploadCalibration(ctx context.Context, vehicleID string, t sensor.Thresholds) error {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "calibrate vehicles"); err != nil {
		return err
	}

	req := &api.CalibrationRequest{
		AlcoholSafe:      t.AlcoholSafe,
		AlcoholWarning:   t.AlcoholWarning,
		ClearanceSafe:    t.ClearanceSafe,
		ClearanceWarning: t.ClearanceWarning,
		ImpactTrigger:    t.ImpactTrigger,
	}
	if err := c.api.UploadCalibration(ctx, vehicleID, req); err != nil {
		return err
	}

	c.log.Info("Calibration uploaded", "vehicleID", vehicleID)
	return nil
}

// --- Credentials ---

// RevealCredentials fetches a vehicle's pairing credentials and opens
// the disclosure window.
func (c *Core) RevealCredentials(ctx context.Context, vehicleID string) (*model.VehicleCredentials, error) {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "view credentials"); err != nil {
		return nil, err
	}

	creds, err := c.api.VehicleCredentials(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	c.creds.Disclose(*creds)
	return creds, nil
}

// RotateCredentials invalidates the device key and discloses the new one.
func (c *Core) RotateCredentials(ctx context.Context, vehicleID string) (*model.VehicleCredentials, error) {
	if err := c.require(func(caps capabilities) bool { return caps.ManageVehicles }, "rotate credentials"); err != nil {
		return nil, err
	}

	creds, err := c.api.RotateVehicleKey(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	c.creds.Disclose(*creds)
	c.log.Info("Vehicle key rotated", "vehicleID", vehicleID)
	return creds, nil
}

// DisclosedCredentials returns a vehicle's credentials while the
// disclosure window is open.
func (c *Core) DisclosedCredentials(vehicleID string) (model.VehicleCredentials, bool) {
	return c.creds.Disclosed(vehicleID)
}

// DismissCredentials closes the disclosure window early.
func (c *Core) DismissCredentials(vehicleID string) {
	c.creds.Dismiss(vehicleID)
}

// Provision builds the pairing payload for a vehicle whose credentials
// are currently disclosed. Every call draws a fresh nonce.
func (c *Core) Provision(vehicleID string) (*credential.ProvisionPayload, error) {
	creds, ok := c.creds.Disclosed(vehicleID)
	if !ok {
		return nil, fmt.Errorf("credentials for vehicle %s are not disclosed", vehicleID)
	}

	c.mu.RLock()
	owner := c.owner
	var vehicle *model.VehicleDevice
	for i := range c.vehicles {
		if c.vehicles[i].VehicleID == vehicleID {
			vehicle = &c.vehicles[i]
		}
	}
	c.mu.RUnlock()

	if vehicle == nil {
		return nil, fmt.Errorf("unknown vehicle %s", vehicleID)
	}

	return credential.NewProvisionPayload(owner, *vehicle, creds.DeviceKey, c.clock.Now())
}

// --- Telemetry overrides ---

// SetOverride pins a diagnostic snapshot above the live stream.
func (c *Core) SetOverride(snap *model.SensorSnapshot) {
	if snap != nil {
		snap.ReceivedAt = c.clock.Now()
	}
	c.telemetry.SetOverride(snap)
}

// ClearOverride resumes evaluating the live stream.
func (c *Core) ClearOverride() {
	c.telemetry.ClearOverride()
}

// --- Plumbing ---

// capabilities keeps the guard closures below readable.
type capabilities = session.Capabilities

func (c *Core) require(allowed func(capabilities) bool, what string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return fmt.Errorf("not signed in")
	}
	if !allowed(c.caps) {
		return fmt.Errorf("current role may not %s", what)
	}
	return nil
}
