package approval

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	fsmutil "github.com/safedrive-io/safedrive/internal/pkg/util/fsm"
)

// Phases of the local car-start request lifecycle.
const (
	PhaseNone     = "none"
	PhasePending  = "pending"
	PhaseApproved = "approved"
	PhaseRejected = "rejected"
)

const (
	// EventOpen starts tracking a freshly announced request.
	EventOpen = "event_open"
	// EventApprove resolves the tracked request positively.
	EventApprove = "event_approve"
	// EventReject resolves the tracked request negatively.
	EventReject = "event_reject"
	// EventReset drops the tracked request back to baseline.
	EventReset = "event_reset"
)

type FiniteStateMachine struct {
	*fsm.FSM
}

func NewFiniteStateMachine() *FiniteStateMachine {
	f := &FiniteStateMachine{}

	events := fsm.Events{
		{Name: EventOpen, Src: []string{PhaseNone}, Dst: PhasePending},
		{Name: EventApprove, Src: []string{PhasePending}, Dst: PhaseApproved},
		{Name: EventReject, Src: []string{PhasePending}, Dst: PhaseRejected},

		// Reset is valid from every phase. Resolved requests reset once
		// the backend acknowledges them, pending ones on expiry or error.
		{Name: EventReset, Src: []string{PhasePending, PhaseApproved, PhaseRejected, PhaseNone}, Dst: PhaseNone},
	}

	callbacks := fsm.Callbacks{
		// Guard: resolving requires a tracked request.
		"before_" + EventApprove: fsmutil.WrapEvent(f.GuardTracked),
		"before_" + EventReject:  fsmutil.WrapEvent(f.GuardTracked),
	}

	f.FSM = fsm.NewFSM(PhaseNone, events, callbacks)
	return f
}

// GuardTracked cancels a resolution when no request is being tracked.
func (f *FiniteStateMachine) GuardTracked(ctx context.Context, e *fsm.Event) error {
	if len(e.Args) == 0 || e.Args[0] == nil {
		e.Cancel(fsm.NoTransitionError{})
		return nil
	}
	if _, ok := e.Args[0].(*model.StartRequest); !ok {
		e.Cancel(fsm.NoTransitionError{})
	}
	return nil
}
