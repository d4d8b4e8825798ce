package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedrive-io/safedrive/internal/companion/api"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
	"github.com/safedrive-io/safedrive/pkg/log"
	"github.com/safedrive-io/safedrive/pkg/options"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	veh := model.VehicleDevice{ID: "doc-1", VehicleID: "veh-1", Name: "Daily Driver", PlateNumber: "12가3456"}
	dc := api.DashboardContext{
		ContextRole:      model.RoleOwner,
		DashboardOwnerID: "owner-1",
		Owner:            model.OwnerInfo{ID: "owner-1", Name: "Viewer", Phone: "010-0000-0000"},
		Vehicles:         []model.VehicleDevice{veh},
		ActiveVehicle:    &veh,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login":
			json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok", User: model.User{ID: "owner-1", Name: "Viewer"}})
		case r.URL.Path == "/auth/context":
			json.NewEncoder(w).Encode(dc)
		case r.URL.Path == "/requests/active":
			w.Write([]byte("null"))
		case r.URL.Path == "/vehicles/veh-1" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(model.VehicleCredentials{VehicleID: "veh-1", DeviceKey: "key-abc"})
		case r.URL.Path == "/vehicles/veh-1/rotate-key":
			json.NewEncoder(w).Encode(model.VehicleCredentials{VehicleID: "veh-1", DeviceKey: "key-new"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T, signedIn bool) (*Server, *state.Core, *clock.Mock) {
	t.Helper()

	backend := newBackend(t)
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	core := state.NewCore(log.NewNopLogger(), api.NewClient(backend.URL, 5*time.Second), clk,
		sensor.DefaultThresholds(), filepath.Join(t.TempDir(), "token"))
	if signedIn {
		require.NoError(t, core.Login(context.Background(), "viewer@example.com", "secret"))
	}

	opts := options.NewHttpOptions()
	return NewServer(log.NewNopLogger(), opts, core), core, clk
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	srv, core, _ := newServer(t, false)

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/readyz").Code)

	require.NoError(t, core.Login(context.Background(), "viewer@example.com", "secret"))
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/readyz").Code)
}

func TestMetricsExposed(t *testing.T) {
	srv, _, _ := newServer(t, true)

	rec := get(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "safedrive_")
}

func TestDashboard(t *testing.T) {
	srv, core, _ := newServer(t, true)

	zero, g := 0.0, 9.8
	core.HandleSensorUpdate(context.Background(), &model.SensorSnapshot{
		VehicleID:  "veh-1",
		Alcohol:    0.2,
		Ultrasonic: model.Ultrasonic{Front: 50, Back: 50},
		Surface:    model.Surface{Left: 30, Right: 30},
		Accel:      model.Accel{X: &zero, Y: &zero, Z: &g},
		Speed:      20,
	})

	rec := get(t, srv.Handler(), "/v1/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var view state.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, model.RoleOwner, view.Role)
	assert.Equal(t, sensor.LevelSafe, view.Sensors.Alcohol)
	assert.True(t, view.Sensors.Running)
	assert.Len(t, view.Vehicles, 1)
}

func TestRequestNotFound(t *testing.T) {
	srv, _, _ := newServer(t, true)
	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/v1/request").Code)
}

func TestDecisionPreviewNeedsConfirm(t *testing.T) {
	srv, _, _ := newServer(t, true)

	body := strings.NewReader(`{"decision":"APPROVED"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/request/decision", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var preview decisionPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.False(t, preview.Confirmed)
	assert.Contains(t, preview.Consequence, "40 km/h")
}

func TestDecisionRejectedForOwner(t *testing.T) {
	// The owner asks; members decide. A confirmed decision from the
	// owner must be refused.
	srv, _, _ := newServer(t, true)

	body := strings.NewReader(`{"decision":"REJECTED","confirm":true}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/request/decision", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCredentialDisclosureFlow(t *testing.T) {
	srv, _, clk := newServer(t, true)
	h := srv.Handler()

	// Nothing disclosed yet.
	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/vehicles/veh-1/credentials").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/vehicles/veh-1/credentials/reveal", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/v1/vehicles/veh-1/credentials")
	require.Equal(t, http.StatusOK, rec.Code)
	var creds model.VehicleCredentials
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &creds))
	assert.Equal(t, "key-abc", creds.DeviceKey)

	// The provisioning payload is available while disclosed.
	rec = get(t, h, "/v1/vehicles/veh-1/provision")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "key-abc")
	assert.Contains(t, rec.Body.String(), "nonce")

	// The window closes on its own.
	clk.Advance(10 * time.Second)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/vehicles/veh-1/credentials").Code)
	assert.Equal(t, http.StatusConflict, get(t, h, "/v1/vehicles/veh-1/provision").Code)
}

func TestRotateDisclosesNewKey(t *testing.T) {
	srv, _, _ := newServer(t, true)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/vehicles/veh-1/credentials/rotate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "key-new")
}

func TestOverrideRoundTrip(t *testing.T) {
	srv, _, _ := newServer(t, true)
	h := srv.Handler()

	body := strings.NewReader(`{"vehicleId":"veh-1","alcohol":0.9,"ultrasonic":{"front":50,"back":50},"surface":{"left":30,"right":30},"accel":{"x":0,"y":0,"z":9.8},"speed":10}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/override", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var view state.SensorView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, sensor.LevelDanger, view.Alcohol)
	assert.True(t, view.Overridden)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/override", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, srv.core.Sensors().Overridden)
}
