// Package credential handles transient disclosure of vehicle pairing
// credentials. Credentials live in memory only and every disclosure
// closes itself after a fixed window.
package credential

import (
	"sync"
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
)

// DisclosureWindow is how long a revealed credential stays readable
// before it is wiped again.
const DisclosureWindow = 10 * time.Second

// Manager tracks which vehicles currently have their credentials
// disclosed. Safe for concurrent use; window timers fire on their own
// goroutines.
type Manager struct {
	mu    sync.Mutex
	clock clock.Clock

	open map[string]*disclosure
}

type disclosure struct {
	creds model.VehicleCredentials
	timer clock.Timer
}

// NewManager returns a manager with no open disclosures.
func NewManager(clk clock.Clock) *Manager {
	return &Manager{
		clock: clk,
		open:  make(map[string]*disclosure),
	}
}

// Disclose opens (or refreshes) the disclosure window for the given
// credentials. Revealing again restarts the window.
func (m *Manager) Disclose(creds model.VehicleCredentials) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.open[creds.VehicleID]; ok {
		d.timer.Stop()
	}

	id := creds.VehicleID
	m.open[id] = &disclosure{
		creds: creds,
		timer: m.clock.AfterFunc(DisclosureWindow, func() {
			m.expire(id)
		}),
	}
}

// Disclosed returns the credentials for a vehicle while its window is
// open, or false once it has closed.
func (m *Manager) Disclosed(vehicleID string) (model.VehicleCredentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.open[vehicleID]
	if !ok {
		return model.VehicleCredentials{}, false
	}
	return d.creds, true
}

// Dismiss closes a disclosure early.
func (m *Manager) Dismiss(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.open[vehicleID]; ok {
		d.timer.Stop()
		delete(m.open, vehicleID)
	}
}

// CloseAll wipes every open disclosure. Used on logout and shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, d := range m.open {
		d.timer.Stop()
		delete(m.open, id)
	}
}

func (m *Manager) expire(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, vehicleID)
}
