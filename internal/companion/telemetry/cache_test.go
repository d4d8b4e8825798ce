package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

func snap(vehicleID string, speed float64) *model.SensorSnapshot {
	return &model.SensorSnapshot{VehicleID: vehicleID, Speed: speed}
}

func TestPutAndLive(t *testing.T) {
	c := NewCache()
	c.SetActive("veh-1")

	assert.True(t, c.Put(snap("veh-1", 10)), "active vehicle snapshot is live")
	assert.False(t, c.Put(snap("veh-2", 20)), "other vehicles cache silently")

	live := c.Live()
	assert.NotNil(t, live)
	assert.Equal(t, "veh-1", live.VehicleID)
	assert.Equal(t, 10.0, live.Speed)

	// Cached snapshot surfaces immediately on switch.
	c.SetActive("veh-2")
	live = c.Live()
	assert.NotNil(t, live)
	assert.Equal(t, 20.0, live.Speed)
}

func TestNoActiveVehicleFallsBackToLatest(t *testing.T) {
	c := NewCache()

	assert.True(t, c.Put(snap("veh-1", 10)), "latest snapshot is live before a vehicle is announced")
	assert.Equal(t, "veh-1", c.Live().VehicleID)

	assert.True(t, c.Put(snap("veh-2", 20)))
	assert.Equal(t, "veh-2", c.Live().VehicleID)
	assert.Equal(t, 20.0, c.Effective().Speed)

	// Announcing the active vehicle ends the fallback.
	c.SetActive("veh-1")
	assert.Equal(t, "veh-1", c.Live().VehicleID)
	assert.False(t, c.Put(snap("veh-2", 30)))
}

func TestPutIdempotent(t *testing.T) {
	c := NewCache()
	c.SetActive("veh-1")

	s := snap("veh-1", 10)
	c.Put(s)
	before := c.Live()
	c.Put(s)
	assert.Equal(t, before, c.Live())
}

func TestPutRejectsEmpty(t *testing.T) {
	c := NewCache()
	assert.False(t, c.Put(nil))
	assert.False(t, c.Put(&model.SensorSnapshot{}))
	assert.Nil(t, c.Live())
}

func TestOverride(t *testing.T) {
	c := NewCache()
	c.SetActive("veh-1")
	c.Put(snap("veh-1", 10))

	ov := snap("veh-1", 99)
	c.SetOverride(ov)
	assert.Equal(t, 99.0, c.Effective().Speed)

	// Stream updates keep caching underneath the override.
	c.Put(snap("veh-1", 30))
	assert.Equal(t, 99.0, c.Effective().Speed)

	c.ClearOverride()
	assert.Equal(t, 30.0, c.Effective().Speed)
}

func TestClear(t *testing.T) {
	c := NewCache()
	c.SetActive("veh-1")
	c.Put(snap("veh-1", 10))
	c.SetOverride(snap("veh-1", 99))

	c.Clear()
	assert.Nil(t, c.Live())
	assert.Nil(t, c.Effective())
	assert.Equal(t, "", c.Active())
	assert.Nil(t, c.Latest("veh-1"))
}
