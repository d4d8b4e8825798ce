// Package state is the synchronization core of the companion. It owns
// every piece of session state and is its sole mutator: push events,
// pull results and user actions all funnel through the named methods
// here. Handlers may run on transport goroutines; a single mutex
// serializes all mutation. Per entity the last write wins.
package state

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/safedrive-io/safedrive/internal/companion/api"
	"github.com/safedrive-io/safedrive/internal/companion/approval"
	"github.com/safedrive-io/safedrive/internal/companion/credential"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/internal/companion/session"
	"github.com/safedrive-io/safedrive/internal/companion/telemetry"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
	"github.com/safedrive-io/safedrive/internal/pkg/metrics"
	"github.com/safedrive-io/safedrive/pkg/log"
)

// Core holds the reconciled session state.
type Core struct {
	log        log.Logger
	api        *api.Client
	clock      clock.Clock
	classifier *sensor.Classifier
	tokenFile  string

	telemetry *telemetry.Cache
	creds     *credential.Manager

	mu               sync.RWMutex
	user             *model.User
	role             model.Role
	caps             session.Capabilities
	dashboardOwnerID string
	owner            model.OwnerInfo
	vehicles         []model.VehicleDevice
	activeVehicle    *model.VehicleDevice
	vehicleState     *model.VehicleState
	tracker          *approval.Tracker
}

// NewCore wires a core around the given collaborator client. Thresholds
// default to the production calibration when zero.
func NewCore(logger log.Logger, client *api.Client, clk clock.Clock, thresholds sensor.Thresholds, tokenFile string) *Core {
	if thresholds == (sensor.Thresholds{}) {
		thresholds = sensor.DefaultThresholds()
	}

	c := &Core{
		log:        logger,
		api:        client,
		clock:      clk,
		classifier: sensor.NewClassifier(thresholds),
		tokenFile:  tokenFile,
		telemetry:  telemetry.NewCache(),
		creds:      credential.NewManager(clk),
	}
	c.tracker = approval.NewTracker(clk, c.onExpire)
	metrics.SetSnapshotAgeFunc(c.snapshotAge)
	return c
}

// snapshotAge feeds the snapshot age gauge, read at scrape time.
func (c *Core) snapshotAge() float64 {
	snap := c.telemetry.Live()
	if snap == nil || snap.ReceivedAt.IsZero() {
		return 0
	}
	return c.clock.Now().Sub(snap.ReceivedAt).Seconds()
}

// Classifier exposes the threshold evaluator for read-only derivations.
func (c *Core) Classifier() *sensor.Classifier { return c.classifier }

// Token returns the session bearer token, empty when signed out.
func (c *Core) Token() string { return c.api.Token() }

// --- Session lifecycle ---

// Login authenticates, persists the bearer token and loads the dashboard
// context.
func (c *Core) Login(ctx context.Context, email, password string) error {
	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := api.SaveToken(c.tokenFile, res.Token); err != nil {
		return err
	}

	c.mu.Lock()
	c.user = &res.User
	c.mu.Unlock()

	return c.LoadContext(ctx)
}

// Register creates a new account. The caller still signs in afterwards.
func (c *Core) Register(ctx context.Context, name, email, phone, password string) error {
	return c.api.Register(ctx, &api.RegisterRequest{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: password,
	})
}

// Bootstrap restores a previous session from the saved token. A missing
// token leaves the core signed out without error.
func (c *Core) Bootstrap(ctx context.Context) error {
	token, err := api.LoadToken(c.tokenFile)
	if err != nil {
		return err
	}
	if token == "" {
		c.log.Info("No saved session, starting signed out")
		return nil
	}

	c.api.SetToken(token)

	user, err := c.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	return c.LoadContext(ctx)
}

// LoadContext pulls /auth/context and replaces the local view of the
// dashboard wholesale, then reconciles the active request.
func (c *Core) LoadContext(ctx context.Context) error {
	dc, err := c.api.Context(ctx)
	if err != nil {
		metrics.PullFailuresTotal.WithLabelValues("context").Inc()
		return fmt.Errorf("failed to load dashboard context: %w", err)
	}

	c.mu.Lock()
	c.role = dc.ContextRole
	c.caps = session.Resolve(dc.ContextRole)
	c.dashboardOwnerID = dc.DashboardOwnerID
	c.owner = dc.Owner
	c.vehicles = dc.Vehicles
	c.activeVehicle = dc.ActiveVehicle
	c.mu.Unlock()

	if dc.ActiveVehicle != nil {
		c.telemetry.SetActive(dc.ActiveVehicle.VehicleID)
	} else {
		c.telemetry.SetActive("")
	}

	c.log.Info("Dashboard context loaded",
		"role", dc.ContextRole, "ownerID", dc.DashboardOwnerID, "vehicles", len(dc.Vehicles))

	return c.RefreshRequest(ctx)
}

// Logout tears down the session: token, request tracking, telemetry and
// open credential disclosures all go at once.
func (c *Core) Logout(ctx context.Context) error {
	if err := api.ClearToken(c.tokenFile); err != nil {
		return err
	}
	c.api.SetToken("")

	c.mu.Lock()
	c.user = nil
	c.role = ""
	c.caps = session.Capabilities{}
	c.dashboardOwnerID = ""
	c.owner = model.OwnerInfo{}
	c.vehicles = nil
	c.activeVehicle = nil
	c.vehicleState = nil
	c.tracker.Reset(ctx)
	c.mu.Unlock()

	c.telemetry.Clear()
	c.creds.CloseAll()

	c.log.Info("Signed out")
	return nil
}

// Close releases timers and open disclosures on shutdown. Unlike
// Logout it leaves the saved token alone so the next start can resume.
func (c *Core) Close(ctx context.Context) {
	c.mu.Lock()
	c.tracker.Reset(ctx)
	c.mu.Unlock()
	c.creds.CloseAll()
}

// SignedIn reports whether a session is active.
func (c *Core) SignedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil
}

// --- Request reconciliation ---

// RefreshRequest pulls the authoritative request state. Any failure or
// an empty answer collapses local request state back to baseline; a
// half-updated view is worse than none.
func (c *Core) RefreshRequest(ctx context.Context) error {
	info, err := c.api.ActiveRequest(ctx)
	if err != nil {
		metrics.PullFailuresTotal.WithLabelValues("requests_active").Inc()
		c.log.Error(err, "Failed to pull active request, resetting request state")
		c.resetRequest(ctx)
		return err
	}
	if info == nil {
		c.resetRequest(ctx)
		return nil
	}

	res, err := c.api.RequestApprovals(ctx, info.RequestID)
	if err != nil {
		metrics.PullFailuresTotal.WithLabelValues("request_approvals").Inc()
		c.log.Error(err, "Failed to pull approvals, resetting request state", "requestID", info.RequestID)
		c.resetRequest(ctx)
		return err
	}

	req := &model.StartRequest{
		ID:           info.RequestID,
		AlcoholLevel: res.AlcoholLevel,
		RequestedAt:  res.RequestedAt,
		ExpiresAt:    res.ExpiresAt,
		Status:       res.Status,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.Tracking(req.ID) {
		c.tracker.Reset(ctx)
	}
	if err := c.tracker.Open(ctx, req, res.Approvals); err != nil {
		return err
	}
	c.resolveLocked(ctx, approval.Aggregate(res.Approvals))
	return nil
}

// AskStart creates a car-start request from the current alcohol reading.
func (c *Core) AskStart(ctx context.Context) (*model.StartRequest, error) {
	c.mu.RLock()
	allowed := c.caps.AskStart
	c.mu.RUnlock()
	if !allowed {
		return nil, fmt.Errorf("current role may not request a car start")
	}

	snap := c.telemetry.Effective()
	if snap == nil {
		return nil, fmt.Errorf("no telemetry available to attach to the request")
	}

	res, err := c.api.AskStart(ctx, snap.Alcohol)
	if err != nil {
		return nil, err
	}

	req := &model.StartRequest{
		ID:           res.RequestID,
		AlcoholLevel: snap.Alcohol,
		RequestedAt:  res.RequestedAt,
		ExpiresAt:    res.ExpiresAt,
		Status:       model.StatusPending,
	}

	c.mu.Lock()
	c.tracker.Reset(ctx)
	err = c.tracker.Open(ctx, req, nil)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.pullRoster(ctx, req.ID)
	return req, nil
}

// Decide submits the signed-in member's verdict and reconciles.
func (c *Core) Decide(ctx context.Context, decision model.RequestStatus) error {
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return fmt.Errorf("invalid decision %q", decision)
	}

	c.mu.RLock()
	if !c.caps.DecideRequests {
		c.mu.RUnlock()
		return fmt.Errorf("current role may not decide car-start requests")
	}
	if c.user == nil {
		c.mu.RUnlock()
		return fmt.Errorf("not signed in")
	}
	userID := c.user.ID
	if !c.tracker.CanDecide(userID) {
		c.mu.RUnlock()
		return fmt.Errorf("no pending decision for this member")
	}
	requestID := c.tracker.Request().ID
	var memberID string
	for _, a := range c.tracker.Roster() {
		if a.UserID == userID {
			memberID = a.MemberID
		}
	}
	c.mu.RUnlock()

	if err := c.api.SubmitDecision(ctx, &api.DecisionRequest{
		RequestID: requestID,
		MemberID:  memberID,
		Decision:  decision,
	}); err != nil {
		return err
	}

	return c.RefreshRequest(ctx)
}

// AcknowledgeRequest drops a resolved request back to baseline. Pending
// requests cannot be acknowledged away.
func (c *Core) AcknowledgeRequest(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.tracker.Phase() {
	case approval.PhaseApproved, approval.PhaseRejected:
		c.tracker.Reset(ctx)
	}
}

// onExpire fires when the tracked request outlives its deadline. The
// backend is re-queried rather than assuming the local clock is right.
func (c *Core) onExpire(requestID string) {
	c.mu.RLock()
	tracked := c.tracker.Tracking(requestID)
	c.mu.RUnlock()
	if !tracked {
		return
	}

	c.log.Info("Request deadline passed, re-querying", "requestID", requestID)
	if err := c.RefreshRequest(context.Background()); err == nil {
		c.mu.RLock()
		gone := !c.tracker.Tracking(requestID)
		c.mu.RUnlock()
		if gone {
			metrics.RequestResolutionsTotal.WithLabelValues("expired").Inc()
		}
	}
}

func (c *Core) resetRequest(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker.Reset(ctx)
}

// pullRoster fetches the decision roster for a freshly opened request.
// Failures keep the request pending; the next push or the expiry
// re-query reconciles.
func (c *Core) pullRoster(ctx context.Context, requestID string) {
	res, err := c.api.RequestApprovals(ctx, requestID)
	if err != nil {
		metrics.PullFailuresTotal.WithLabelValues("request_approvals").Inc()
		c.log.Error(err, "Failed to pull decision roster", "requestID", requestID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracker.Tracking(requestID) {
		return
	}
	c.tracker.SetRoster(res.Approvals)
	c.resolveLocked(ctx, approval.Aggregate(res.Approvals))
}

// resolveLocked moves the tracked request to a terminal phase when the
// aggregate says so. Caller holds c.mu.
func (c *Core) resolveLocked(ctx context.Context, agg model.RequestStatus) {
	if agg != model.StatusApproved && agg != model.StatusRejected {
		return
	}
	if c.tracker.Phase() != approval.PhasePending {
		return
	}
	if err := c.tracker.Resolve(ctx, agg); err != nil {
		c.log.Error(err, "Failed to resolve request", "status", agg)
		return
	}
	metrics.RequestResolutionsTotal.WithLabelValues(strings.ToLower(string(agg))).Inc()
	c.log.Info("Car-start request resolved", "status", agg)
}
