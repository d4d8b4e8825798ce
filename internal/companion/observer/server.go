// Package observer is the companion's local read-only surface: health
// probes, metrics and a small JSON API over the synchronization core
// for dashboards and tooling on the same host.
package observer

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/pkg/log"
	"github.com/safedrive-io/safedrive/pkg/options"
)

type Server struct {
	log    log.Logger
	server *http.Server
	core   *state.Core
}

// NewServer builds the local HTTP surface on top of the core.
func NewServer(logger log.Logger, opts *options.HttpOptions, core *state.Core) *Server {
	s := &Server{
		log:  logger,
		core: core,
	}

	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	v1.HandleFunc("/sensors", s.handleSensors).Methods(http.MethodGet)

	v1.HandleFunc("/request", s.handleRequest).Methods(http.MethodGet)
	v1.HandleFunc("/request/ask", s.handleAsk).Methods(http.MethodPost)
	v1.HandleFunc("/request/decision", s.handleDecision).Methods(http.MethodPost)
	v1.HandleFunc("/request/ack", s.handleAck).Methods(http.MethodPost)

	v1.HandleFunc("/vehicles", s.handleVehicles).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles", s.handleAddVehicle).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}", s.handleDeleteVehicle).Methods(http.MethodDelete)
	v1.HandleFunc("/vehicles/{id}/active", s.handleSwitchVehicle).Methods(http.MethodPut)
	v1.HandleFunc("/vehicles/{id}/credentials", s.handleCredentials).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles/{id}/credentials", s.handleDismissCredentials).Methods(http.MethodDelete)
	v1.HandleFunc("/vehicles/{id}/credentials/reveal", s.handleRevealCredentials).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}/credentials/rotate", s.handleRotateCredentials).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}/provision", s.handleProvision).Methods(http.MethodGet)

	v1.HandleFunc("/members", s.handleMembers).Methods(http.MethodGet)
	v1.HandleFunc("/members", s.handleAddMember).Methods(http.MethodPost)
	v1.HandleFunc("/members/{id}", s.handleUpdateMember).Methods(http.MethodPut)
	v1.HandleFunc("/members/{id}", s.handleDeleteMember).Methods(http.MethodDelete)

	v1.HandleFunc("/override", s.handleSetOverride).Methods(http.MethodPut)
	v1.HandleFunc("/override", s.handleClearOverride).Methods(http.MethodDelete)

	s.server = &http.Server{
		Addr:    opts.Addr,
		Handler: r,
	}
	return s
}

// Start serves until the context is cancelled, then shuts down cleanly.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting observer server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
