// Package stream binds the MQTT push channel to the synchronization
// core. It owns no state of its own: frames are decoded and handed to
// the core's named handlers, which do all guarding and merging.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/internal/pkg/metrics"
	"github.com/safedrive-io/safedrive/pkg/log"
	"github.com/safedrive-io/safedrive/pkg/mqtt"
	"github.com/safedrive-io/safedrive/pkg/mqtt/topic"
)

const subscribeQoS = 1

// Stream subscribes the companion to its owner context's topics.
// Opened once a session exists, closed on logout or shutdown.
type Stream struct {
	log    log.Logger
	client mqtt.Client
	topics *topic.Builder
	core   *state.Core
}

// New wires a stream for the given topic root.
func New(logger log.Logger, client mqtt.Client, topicRoot string, core *state.Core) *Stream {
	return &Stream{
		log:    logger,
		client: client,
		topics: topic.NewBuilder(topicRoot),
		core:   core,
	}
}

// Start connects and subscribes to every topic of the viewer's owner
// context. The companion must be signed in first.
func (s *Stream) Start(ctx context.Context) error {
	ownerID := s.core.DashboardOwnerID()
	if ownerID == "" {
		return fmt.Errorf("cannot open stream without a dashboard context")
	}

	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	if err := s.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("failed to reach broker: %w", err)
	}
	metrics.StreamConnectivityStatus.Set(1)

	routes := map[string]mqtt.MessageHandler{
		s.topics.SensorWildcard():         s.onSensor,
		s.topics.RequestNew(ownerID):      s.onRequestNew,
		s.topics.RequestUpdate(ownerID):   s.onRequestUpdate,
		s.topics.RequestApproval(ownerID): s.onApproval,
		s.topics.VehicleState(ownerID):    s.onVehicleState,
		s.topics.ActiveVehicle(ownerID):   s.onActiveVehicle,
	}

	for filter, handler := range routes {
		if err := s.client.Subscribe(ctx, filter, subscribeQoS, handler); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", filter, err)
		}
	}

	s.log.Info("Event stream opened", "ownerID", ownerID, "routes", len(routes))
	return nil
}

// Stop disconnects from the broker.
func (s *Stream) Stop(ctx context.Context) {
	s.client.Disconnect(ctx)
	metrics.StreamConnectivityStatus.Set(0)
	s.log.Info("Event stream closed")
}

// --- Frame handlers ---

func (s *Stream) onSensor(ctx context.Context, t string, payload []byte) {
	var snap model.SensorSnapshot
	if !s.decode(t, payload, &snap) {
		return
	}
	s.core.HandleSensorUpdate(ctx, &snap)
}

func (s *Stream) onRequestNew(ctx context.Context, t string, payload []byte) {
	var ev state.RequestNewEvent
	if !s.decode(t, payload, &ev) {
		return
	}
	s.core.HandleRequestNew(ctx, &ev)
}

func (s *Stream) onRequestUpdate(ctx context.Context, t string, payload []byte) {
	var ev state.RequestUpdateEvent
	if !s.decode(t, payload, &ev) {
		return
	}
	s.core.HandleRequestUpdate(ctx, &ev)
}

func (s *Stream) onApproval(ctx context.Context, t string, payload []byte) {
	var ev state.ApprovalUpdateEvent
	if !s.decode(t, payload, &ev) {
		return
	}
	s.core.HandleApprovalUpdate(ctx, &ev)
}

func (s *Stream) onVehicleState(ctx context.Context, t string, payload []byte) {
	var ev state.VehicleStateEvent
	if !s.decode(t, payload, &ev) {
		return
	}
	s.core.HandleVehicleState(ctx, &ev)
}

func (s *Stream) onActiveVehicle(ctx context.Context, t string, payload []byte) {
	var ev state.ActiveVehicleEvent
	if !s.decode(t, payload, &ev) {
		return
	}
	s.core.HandleActiveVehicle(ctx, &ev)
}

func (s *Stream) decode(t string, payload []byte, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		metrics.EventsDroppedTotal.WithLabelValues("decode_error").Inc()
		s.log.Error(err, "Failed to decode stream frame", "topic", t)
		return false
	}
	return true
}
