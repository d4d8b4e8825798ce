package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
)

var creds = model.VehicleCredentials{VehicleID: "veh-1", DeviceKey: "key-abc"}

func TestDisclosureWindow(t *testing.T) {
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	m := NewManager(clk)

	_, ok := m.Disclosed("veh-1")
	assert.False(t, ok)

	m.Disclose(creds)
	got, ok := m.Disclosed("veh-1")
	require.True(t, ok)
	assert.Equal(t, "key-abc", got.DeviceKey)

	clk.Advance(9 * time.Second)
	_, ok = m.Disclosed("veh-1")
	assert.True(t, ok, "window still open")

	clk.Advance(time.Second)
	_, ok = m.Disclosed("veh-1")
	assert.False(t, ok, "window closed after 10s")
}

func TestDiscloseRestartsWindow(t *testing.T) {
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	m := NewManager(clk)

	m.Disclose(creds)
	clk.Advance(8 * time.Second)
	m.Disclose(creds)

	clk.Advance(8 * time.Second)
	_, ok := m.Disclosed("veh-1")
	assert.True(t, ok, "second reveal restarted the window")

	clk.Advance(2 * time.Second)
	_, ok = m.Disclosed("veh-1")
	assert.False(t, ok)
}

func TestDismiss(t *testing.T) {
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	m := NewManager(clk)

	m.Disclose(creds)
	m.Dismiss("veh-1")
	_, ok := m.Disclosed("veh-1")
	assert.False(t, ok)

	// Dismissing again is harmless.
	m.Dismiss("veh-1")
}

func TestCloseAll(t *testing.T) {
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	m := NewManager(clk)

	m.Disclose(creds)
	m.Disclose(model.VehicleCredentials{VehicleID: "veh-2", DeviceKey: "key-def"})

	m.CloseAll()
	_, ok := m.Disclosed("veh-1")
	assert.False(t, ok)
	_, ok = m.Disclosed("veh-2")
	assert.False(t, ok)
}

func TestProvisionPayload(t *testing.T) {
	owner := model.OwnerInfo{ID: "user-1", Name: "Dana", Phone: "010-1234-5678"}
	vehicle := model.VehicleDevice{ID: "doc-1", VehicleID: "veh-1", Name: "Daily Driver", PlateNumber: "12가3456"}
	issued := time.Unix(1_700_000_000, 0)

	p, err := NewProvisionPayload(owner, vehicle, "key-abc", issued)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Version)
	assert.Equal(t, issued, p.IssuedAt)
	assert.Len(t, p.Nonce, 16, "8 random bytes hex encoded")
	assert.Equal(t, "Dana", p.Owner.Name)
	assert.Equal(t, "veh-1", p.Vehicle.VehicleID)
	assert.Equal(t, "key-abc", p.DeviceKey)

	// A second render for the same vehicle gets a different nonce.
	p2, err := NewProvisionPayload(owner, vehicle, "key-abc", issued)
	require.NoError(t, err)
	assert.NotEqual(t, p.Nonce, p2.Nonce)
}
