package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/types"
)

func approved(status types.MissionStatus) *types.Mission {
	return &types.Mission{
		ID:          "m-1",
		Title:       "Mission",
		Phase:       types.PhaseTasks,
		PhaseStatus: types.PhaseStatusApproved,
		Status:      status,
	}
}

func TestForLifecycleGate(t *testing.T) {
	now := time.Now()

	m := &types.Mission{Phase: types.PhaseStatement, PhaseStatus: types.PhaseStatusAwaitingApproval, Status: types.MissionInProgress}
	assert.Equal(t, BucketPlanning, For(m, now))

	m = &types.Mission{Phase: types.PhasePlan, PhaseStatus: types.PhaseStatusAwaitingApproval, Status: types.MissionDone}
	assert.Equal(t, BucketPlanning, For(m, now))

	m = &types.Mission{Phase: types.PhaseTasks, PhaseStatus: types.PhaseStatusAwaitingApproval, Status: types.MissionDone}
	assert.Equal(t, BucketPlanning, For(m, now))
}

func TestForStatusPrecedence(t *testing.T) {
	now := time.Now()

	assert.Equal(t, BucketInProgress, For(approved(types.MissionInProgress), now))
	assert.Equal(t, BucketPendingReview, For(approved(types.MissionPendingReview), now))
	assert.Equal(t, BucketDone, For(approved(types.MissionDone), now))
	assert.Equal(t, BucketFailed, For(approved(types.MissionFailed), now))
	assert.Equal(t, BucketReady, For(approved(types.MissionAssigned), now))
	assert.Equal(t, BucketReady, For(approved(types.MissionRevision), now))
}

func TestForScheduledTimePromotion(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	m := approved(types.MissionScheduled)
	m.ScheduledAt = "2026-05-01T11:00:00Z"
	assert.Equal(t, BucketReady, For(m, now), "past scheduled time buckets ready")

	m.ScheduledAt = "2026-05-01T13:00:00Z"
	assert.Equal(t, BucketQueued, For(m, now), "future scheduled time buckets queued")

	// Changing only the clock flips the bucket at the scheduled instant.
	at := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, BucketReady, For(m, at))
	assert.Equal(t, BucketQueued, For(m, at.Add(-time.Second)))

	m.ScheduledAt = "whenever"
	assert.Equal(t, BucketQueued, For(m, now), "unparseable scheduled time stays queued")

	m.ScheduledAt = ""
	assert.Equal(t, BucketQueued, For(m, now))
}

func TestMoveAllowed(t *testing.T) {
	m := approved(types.MissionAssigned)

	assert.True(t, MoveAllowed(m, BucketInProgress))
	assert.True(t, MoveAllowed(m, BucketDone))
	assert.False(t, MoveAllowed(m, BucketQueued), "derived buckets are not move targets")
	assert.False(t, MoveAllowed(m, BucketPlanning))
	assert.False(t, MoveAllowed(m, BucketReady))

	gated := &types.Mission{Phase: types.PhasePlan, PhaseStatus: types.PhaseStatusAwaitingApproval}
	assert.False(t, MoveAllowed(gated, BucketInProgress))
}

func TestStatusFor(t *testing.T) {
	status, ok := StatusFor(BucketInProgress)
	require.True(t, ok)
	assert.Equal(t, types.MissionInProgress, status)

	_, ok = StatusFor(BucketQueued)
	assert.False(t, ok)
}

type staticSource struct {
	missions []*types.Mission
}

func (s *staticSource) ListMissions(ctx context.Context) ([]*types.Mission, error) {
	return s.missions, nil
}

func TestSweeperReportsPromotion(t *testing.T) {
	m := approved(types.MissionScheduled)
	m.ScheduledAt = "2026-05-01T12:00:00Z"
	source := &staticSource{missions: []*types.Mission{m}}

	clock := time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC)
	var changes []BucketChange
	sweeper := NewSweeper(SweeperConfig{
		Source:   source,
		OnChange: func(c BucketChange) { changes = append(changes, c) },
		Now:      func() time.Time { return clock },
	})

	ctx := context.Background()
	require.NoError(t, sweeper.Sweep(ctx))
	assert.Empty(t, changes, "first observation is not a transition")

	require.NoError(t, sweeper.Sweep(ctx))
	assert.Empty(t, changes, "no clock movement, no transition")

	clock = clock.Add(2 * time.Hour)
	require.NoError(t, sweeper.Sweep(ctx))
	require.Len(t, changes, 1)
	assert.Equal(t, BucketChange{MissionID: "m-1", From: BucketQueued, To: BucketReady}, changes[0])
}

func TestTickRequesterCoalesces(t *testing.T) {
	ticks := NewTickRequester()

	ticks.Request()
	ticks.Request()
	ticks.Request()

	select {
	case <-ticks.C():
	default:
		t.Fatal("expected a pending tick")
	}

	select {
	case <-ticks.C():
		t.Fatal("requests must coalesce into a single pending tick")
	default:
	}
}
