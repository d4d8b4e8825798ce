package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// snapshotAge holds the func() float64 installed by the synchronization
// core. The gauge reads it at scrape time.
var snapshotAge atomic.Value

// SetSnapshotAgeFunc installs the source for the snapshot age gauge.
func SetSnapshotAgeFunc(f func() float64) {
	snapshotAge.Store(f)
}

var (
	// StreamConnectivityStatus records the push-channel connection state.
	// 1 = connected, 0 = disconnected.
	StreamConnectivityStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "safedrive_stream_connectivity_status",
			Help: "The connectivity status of the event stream (1=connected, 0=disconnected).",
		},
	)

	// EventsAppliedTotal counts push events applied to local state, by kind.
	EventsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrive_events_applied_total",
			Help: "Total number of push events applied to the local state.",
		},
		[]string{"kind"},
	)

	// EventsDroppedTotal counts push events discarded without effect, by reason.
	// reason: foreign_context, unknown_request, stale, decode_error
	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrive_events_dropped_total",
			Help: "Total number of push events dropped without applying.",
		},
		[]string{"reason"},
	)

	// PullFailuresTotal counts failed reconciliation pulls, by endpoint.
	PullFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrive_pull_failures_total",
			Help: "Total number of failed reconciliation pulls against the backend.",
		},
		[]string{"endpoint"},
	)

	// RequestResolutionsTotal counts car-start request outcomes.
	// outcome: approved/rejected/expired
	RequestResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrive_request_resolutions_total",
			Help: "Total number of car-start requests resolved, by outcome.",
		},
		[]string{"outcome"},
	)

	// SnapshotAgeSeconds reports the age of the live telemetry snapshot,
	// computed at scrape time. Reads 0 until a source is installed.
	SnapshotAgeSeconds = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "safedrive_snapshot_age_seconds",
			Help: "Age of the most recent telemetry snapshot for the active vehicle.",
		},
		func() float64 {
			if f, ok := snapshotAge.Load().(func() float64); ok && f != nil {
				return f()
			}
			return 0
		},
	)
)

func init() {
	prometheus.MustRegister(StreamConnectivityStatus)
	prometheus.MustRegister(EventsAppliedTotal)
	prometheus.MustRegister(EventsDroppedTotal)
	prometheus.MustRegister(PullFailuresTotal)
	prometheus.MustRegister(RequestResolutionsTotal)
	prometheus.MustRegister(SnapshotAgeSeconds)
}
