// Package approval tracks the active car-start request: its lifecycle
// machine, the per-member decision roster and the expiry timer.
package approval

import (
	"context"
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
)

// expiryGrace is added on top of the request deadline before the local
// expiry check fires, leaving room for a push event that resolved the
// request right at the deadline.
const expiryGrace = 500 * time.Millisecond

// ExpireFunc is called when the tracked request passes its deadline
// without resolving. The callee is expected to re-query the backend and
// feed the authoritative answer back through Resolve or Reset.
type ExpireFunc func(requestID string)

// Tracker owns the request lifecycle. It is not safe for concurrent use;
// the synchronization core serializes access to it.
type Tracker struct {
	fsm   *FiniteStateMachine
	clock clock.Clock

	request *model.StartRequest
	roster  []model.Approval

	expiry   clock.Timer
	onExpire ExpireFunc
}

// NewTracker returns an idle tracker.
func NewTracker(clk clock.Clock, onExpire ExpireFunc) *Tracker {
	return &Tracker{
		fsm:      NewFiniteStateMachine(),
		clock:    clk,
		onExpire: onExpire,
	}
}

// Phase returns the current lifecycle phase.
func (t *Tracker) Phase() string {
	return t.fsm.Current()
}

// Request returns the tracked request, or nil when idle.
func (t *Tracker) Request() *model.StartRequest {
	return t.request
}

// Roster returns the per-member decision roster for the tracked request.
func (t *Tracker) Roster() []model.Approval {
	return t.roster
}

// Tracking reports whether an event for the given request ID concerns
// the tracked request. Events for other requests must be ignored.
func (t *Tracker) Tracking(requestID string) bool {
	return t.request != nil && t.request.ID == requestID
}

// Open starts tracking a request and arms the expiry timer. A request
// already being tracked is replaced only after a Reset; re-opening the
// same ID refreshes the roster and the deadline. A moved deadline on a
// still-pending request re-arms the expiry timer, since the backend may
// answer an expiry re-query by extending the request.
func (t *Tracker) Open(ctx context.Context, req *model.StartRequest, roster []model.Approval) error {
	if req == nil {
		return nil
	}
	if t.Tracking(req.ID) {
		extended := !req.ExpiresAt.Equal(t.request.ExpiresAt)
		t.request.RequestedAt = req.RequestedAt
		t.request.ExpiresAt = req.ExpiresAt
		t.roster = roster
		if extended && t.fsm.Current() == PhasePending {
			t.armExpiry(t.request)
		}
		return nil
	}
	if t.fsm.Current() != PhaseNone {
		if err := t.fsm.Event(ctx, EventReset); err != nil {
			return err
		}
	}

	if err := t.fsm.Event(ctx, EventOpen); err != nil {
		return err
	}

	t.request = req
	t.roster = roster
	t.armExpiry(req)
	return nil
}

// SetRoster replaces the decision roster wholesale. Pull results always
// win over locally patched state.
func (t *Tracker) SetRoster(roster []model.Approval) {
	if t.request == nil {
		return
	}
	t.roster = roster
}

// PatchStatus updates a single member's decision in place. Unknown
// members are ignored; the next pull reconciles the roster.
func (t *Tracker) PatchStatus(memberID string, status model.RequestStatus, decidedAt *time.Time) {
	for i := range t.roster {
		if t.roster[i].MemberID == memberID {
			t.roster[i].Status = status
			t.roster[i].DecidedAt = decidedAt
			return
		}
	}
}

// Aggregate folds the roster into a single request status. Any approval
// wins. A unanimous rejection rejects. Anything else stays pending.
// Order of the roster never affects the result.
func Aggregate(roster []model.Approval) model.RequestStatus {
	if len(roster) == 0 {
		return model.StatusPending
	}
	rejected := 0
	for _, a := range roster {
		switch a.Status {
		case model.StatusApproved:
			return model.StatusApproved
		case model.StatusRejected:
			rejected++
		}
	}
	if rejected == len(roster) {
		return model.StatusRejected
	}
	return model.StatusPending
}

// CanDecide reports whether the given viewer may still submit a decision:
// their own entry must be pending and nobody may have approved yet.
func (t *Tracker) CanDecide(userID string) bool {
	if t.request == nil || t.fsm.Current() != PhasePending {
		return false
	}
	var own *model.Approval
	for i := range t.roster {
		if t.roster[i].Status == model.StatusApproved {
			return false
		}
		if t.roster[i].UserID == userID {
			own = &t.roster[i]
		}
	}
	return own != nil && own.Status == model.StatusPending
}

// Resolve moves the tracked request to its terminal phase and disarms
// the expiry timer. The request stays readable until Reset.
func (t *Tracker) Resolve(ctx context.Context, status model.RequestStatus) error {
	if t.request == nil {
		return nil
	}

	var event string
	switch status {
	case model.StatusApproved:
		event = EventApprove
	case model.StatusRejected:
		event = EventReject
	default:
		return nil
	}

	if err := t.fsm.Event(ctx, event, t.request); err != nil {
		return err
	}

	t.request.Status = status
	t.disarmExpiry()
	return nil
}

// Reset drops all request state back to baseline and disarms the timer.
func (t *Tracker) Reset(ctx context.Context) {
	t.disarmExpiry()
	t.request = nil
	t.roster = nil
	if t.fsm.Current() != PhaseNone {
		_ = t.fsm.Event(ctx, EventReset)
	}
}

func (t *Tracker) armExpiry(req *model.StartRequest) {
	t.disarmExpiry()
	if t.onExpire == nil {
		return
	}

	id := req.ID
	delay := req.ExpiresAt.Sub(t.clock.Now()) + expiryGrace
	if delay < 0 {
		delay = 0
	}
	t.expiry = t.clock.AfterFunc(delay, func() {
		t.onExpire(id)
	})
}

func (t *Tracker) disarmExpiry() {
	if t.expiry != nil {
		t.expiry.Stop()
		t.expiry = nil
	}
}
