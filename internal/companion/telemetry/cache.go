// Package telemetry caches per-vehicle sensor snapshots and selects the
// live one for the active vehicle.
package telemetry

import (
	"sync"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Cache retains the latest snapshot for every vehicle seen on the push
// channel. The active vehicle's snapshot is "live"; the rest stay warm
// so switching vehicles surfaces data immediately. Before any active
// vehicle is announced, the most recently seen snapshot counts as live.
//
// An override layer sits above the live snapshot for diagnostics: while
// an override is set, Effective returns it instead of whatever arrives
// from the stream. Overrides never touch the underlying cache.
type Cache struct {
	mu sync.RWMutex

	byVehicle map[string]*model.SensorSnapshot
	active    string
	lastSeen  string
	override  *model.SensorSnapshot
}

// NewCache returns an empty cache with no active vehicle.
func NewCache() *Cache {
	return &Cache{
		byVehicle: make(map[string]*model.SensorSnapshot),
	}
}

// Put stores the snapshot as the latest for its vehicle and reports
// whether it is now the live snapshot. Applying the same snapshot twice
// leaves the cache in the same state.
func (c *Cache) Put(s *model.SensorSnapshot) bool {
	if s == nil || s.VehicleID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.byVehicle[s.VehicleID] = s
	c.lastSeen = s.VehicleID
	if c.active == "" {
		return true
	}
	return s.VehicleID == c.active
}

// SetActive switches the active vehicle. Cached snapshots for other
// vehicles are retained.
func (c *Cache) SetActive(vehicleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = vehicleID
}

// Active returns the current active vehicle ID.
func (c *Cache) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Live returns the cached snapshot for the active vehicle, or nil when
// none has arrived yet. With no active vehicle announced, the latest
// seen snapshot is returned.
func (c *Cache) Live() *model.SensorSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byVehicle[c.liveID()]
}

// liveID selects which vehicle's snapshot is live. Callers hold c.mu.
func (c *Cache) liveID() string {
	if c.active != "" {
		return c.active
	}
	return c.lastSeen
}

// Latest returns the cached snapshot for any vehicle, live or not.
func (c *Cache) Latest(vehicleID string) *model.SensorSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byVehicle[vehicleID]
}

// SetOverride pins a diagnostic snapshot above the live one.
func (c *Cache) SetOverride(s *model.SensorSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = s
}

// ClearOverride removes the diagnostic snapshot, falling back to live.
func (c *Cache) ClearOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = nil
}

// Overridden reports whether a diagnostic override is in effect.
func (c *Cache) Overridden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.override != nil
}

// Effective returns the snapshot the dashboard should evaluate: the
// override when one is set, otherwise the live snapshot.
func (c *Cache) Effective() *model.SensorSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override != nil {
		return c.override
	}
	return c.byVehicle[c.liveID()]
}

// Clear drops every cached snapshot, the override and the active
// selection. Used on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byVehicle = make(map[string]*model.SensorSnapshot)
	c.active = ""
	c.lastSeen = ""
	c.override = nil
}
