package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
)

func request(id string, ttl time.Duration, now time.Time) *model.StartRequest {
	return &model.StartRequest{
		ID:           id,
		AlcoholLevel: 0.82,
		RequestedAt:  now,
		ExpiresAt:    now.Add(ttl),
		Status:       model.StatusPending,
	}
}

func roster(statuses ...model.RequestStatus) []model.Approval {
	out := make([]model.Approval, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, model.Approval{
			MemberID: "mem-" + string(rune('a'+i)),
			UserID:   "user-" + string(rune('a'+i)),
			Status:   s,
		})
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		roster []model.Approval
		want   model.RequestStatus
	}{
		{"empty roster stays pending", nil, model.StatusPending},
		{"all pending", roster(model.StatusPending, model.StatusPending), model.StatusPending},
		{"one approval wins", roster(model.StatusPending, model.StatusApproved), model.StatusApproved},
		{"approval beats rejection", roster(model.StatusRejected, model.StatusApproved), model.StatusApproved},
		{"unanimous rejection rejects", roster(model.StatusRejected, model.StatusRejected), model.StatusRejected},
		{"partial rejection stays pending", roster(model.StatusRejected, model.StatusPending), model.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.roster))

			// The fold must be order independent.
			reversed := make([]model.Approval, len(tt.roster))
			for i, a := range tt.roster {
				reversed[len(tt.roster)-1-i] = a
			}
			assert.Equal(t, tt.want, Aggregate(reversed))
		})
	}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, nil)

	assert.Equal(t, PhaseNone, tr.Phase())
	assert.False(t, tr.Tracking("req-1"))

	req := request("req-1", 2*time.Minute, clk.Now())
	require.NoError(t, tr.Open(ctx, req, roster(model.StatusPending, model.StatusPending)))
	assert.Equal(t, PhasePending, tr.Phase())
	assert.True(t, tr.Tracking("req-1"))
	assert.False(t, tr.Tracking("req-2"))

	require.NoError(t, tr.Resolve(ctx, model.StatusApproved))
	assert.Equal(t, PhaseApproved, tr.Phase())
	assert.Equal(t, model.StatusApproved, tr.Request().Status)

	tr.Reset(ctx)
	assert.Equal(t, PhaseNone, tr.Phase())
	assert.Nil(t, tr.Request())
	assert.Nil(t, tr.Roster())
}

func TestOpenSameRequestKeepsPhase(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, nil)

	req := request("req-1", 2*time.Minute, clk.Now())
	require.NoError(t, tr.Open(ctx, req, roster(model.StatusPending)))
	require.NoError(t, tr.Open(ctx, req, roster(model.StatusApproved)))

	assert.Equal(t, PhasePending, tr.Phase())
	assert.Equal(t, model.StatusApproved, tr.Roster()[0].Status)
}

func TestOpenSameRequestAdoptsExtendedDeadline(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))

	var expired []string
	tr := NewTracker(clk, func(requestID string) {
		expired = append(expired, requestID)
	})

	require.NoError(t, tr.Open(ctx, request("req-1", 2*time.Minute, clk.Now()), roster(model.StatusPending)))

	clk.Advance(2*time.Minute + 500*time.Millisecond)
	require.Equal(t, []string{"req-1"}, expired)

	// The re-query answered with the same request, still pending, on a
	// pushed-out deadline.
	ext := request("req-1", 5*time.Minute, clk.Now())
	require.NoError(t, tr.Open(ctx, ext, roster(model.StatusPending)))
	assert.Equal(t, PhasePending, tr.Phase())
	assert.True(t, tr.Request().ExpiresAt.Equal(ext.ExpiresAt), "tracked deadline follows the pull")

	clk.Advance(5 * time.Minute)
	assert.Equal(t, []string{"req-1"}, expired, "grace period not yet elapsed")

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"req-1", "req-1"}, expired, "moved deadline re-arms the timer")
}

func TestPatchStatus(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, nil)

	require.NoError(t, tr.Open(ctx, request("req-1", time.Minute, clk.Now()), roster(model.StatusPending, model.StatusPending)))

	now := clk.Now()
	tr.PatchStatus("mem-b", model.StatusApproved, &now)
	assert.Equal(t, model.StatusApproved, tr.Roster()[1].Status)
	assert.Equal(t, model.StatusPending, tr.Roster()[0].Status)

	// Unknown members are ignored.
	tr.PatchStatus("mem-z", model.StatusRejected, &now)
	assert.Equal(t, model.StatusApproved, Aggregate(tr.Roster()))
}

func TestCanDecide(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, nil)

	assert.False(t, tr.CanDecide("user-a"), "nothing tracked")

	require.NoError(t, tr.Open(ctx, request("req-1", time.Minute, clk.Now()), roster(model.StatusPending, model.StatusPending)))
	assert.True(t, tr.CanDecide("user-a"))
	assert.False(t, tr.CanDecide("user-z"), "not on the roster")

	now := clk.Now()
	tr.PatchStatus("mem-a", model.StatusRejected, &now)
	assert.False(t, tr.CanDecide("user-a"), "already decided")
	assert.True(t, tr.CanDecide("user-b"))

	tr.PatchStatus("mem-b", model.StatusApproved, &now)
	assert.False(t, tr.CanDecide("user-b"), "request already approved")
}

func TestExpiryFires(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))

	var expired []string
	tr := NewTracker(clk, func(requestID string) {
		expired = append(expired, requestID)
	})

	require.NoError(t, tr.Open(ctx, request("req-1", 2*time.Minute, clk.Now()), roster(model.StatusPending)))

	clk.Advance(2 * time.Minute)
	assert.Empty(t, expired, "grace period not yet elapsed")

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"req-1"}, expired)
}

func TestExpiryDisarmedOnResolve(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))

	var expired []string
	tr := NewTracker(clk, func(requestID string) {
		expired = append(expired, requestID)
	})

	require.NoError(t, tr.Open(ctx, request("req-1", 2*time.Minute, clk.Now()), roster(model.StatusPending)))
	require.NoError(t, tr.Resolve(ctx, model.StatusRejected))

	clk.Advance(5 * time.Minute)
	assert.Empty(t, expired, "resolved requests must not re-query")
}

func TestExpiryDisarmedOnReset(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))

	fired := 0
	tr := NewTracker(clk, func(string) { fired++ })

	require.NoError(t, tr.Open(ctx, request("req-1", time.Minute, clk.Now()), roster(model.StatusPending)))
	tr.Reset(ctx)

	clk.Advance(10 * time.Minute)
	assert.Zero(t, fired)
}

func TestResolveWithoutRequestIsNoop(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, nil)

	require.NoError(t, tr.Resolve(ctx, model.StatusApproved))
	assert.Equal(t, PhaseNone, tr.Phase())
}
