package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/events"
	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/storage"
	"github.com/dispatchhq/dispatch/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMission(id string) *types.Mission {
	now := time.Now().UTC()
	return &types.Mission{
		ID:          id,
		Title:       "Ship the onboarding flow",
		Phase:       types.PhaseStatement,
		PhaseStatus: types.PhaseStatusAwaitingApproval,
		InputText:   "Users should be able to sign up end to end",
		Status:      types.MissionScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testTask(id, rootID string) *types.Task {
	now := time.Now().UTC()
	return &types.Task{
		ID:        id,
		Title:     "Build signup form",
		Status:    types.TaskStatusTodo,
		Priority:  2,
		AgentID:   "agent-1",
		RootID:    rootID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMissionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := testMission("m-1")
	m.ScheduledAt = "2026-09-01T10:00:00Z"
	require.NoError(t, s.SaveMission(ctx, m))

	got, err := s.GetMission(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, types.PhaseStatement, got.Phase)
	assert.Equal(t, "2026-09-01T10:00:00Z", got.ScheduledAt)
	assert.WithinDuration(t, m.CreatedAt, got.CreatedAt, time.Millisecond)

	m.Phase = types.PhasePlan
	m.Statement = "Sign up end to end"
	require.NoError(t, s.SaveMission(ctx, m))

	got, err = s.GetMission(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhasePlan, got.Phase)
	assert.Equal(t, "Sign up end to end", got.Statement)
}

func TestGetMissionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMission(context.Background(), "m-absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListMissionsOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testMission("m-b")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testMission("m-a")
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveMission(ctx, newer))
	require.NoError(t, s.SaveMission(ctx, older))

	missions, err := s.ListMissions(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 2)
	assert.Equal(t, "m-b", missions[0].ID)
	assert.Equal(t, "m-a", missions[1].ID)
}

func TestTaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := testTask("t-1", "m-1")
	task.DependsOn = []string{"t-0"}
	task.Domains = []string{"frontend"}
	task.DueAt = "2026-09-02T09:00:00Z"
	started := time.Now().UTC().Truncate(time.Second)
	task.StartedAt = &started
	require.NoError(t, s.SaveTask(ctx, task))

	got, err := s.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-0"}, got.DependsOn)
	assert.Equal(t, []string{"frontend"}, got.Domains)
	assert.Equal(t, "2026-09-02T09:00:00Z", got.DueAt)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Nil(t, got.CompletedAt)
}

func TestListTasksScopedToMission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTask(ctx, testTask("t-1", "m-1")))
	require.NoError(t, s.SaveTask(ctx, testTask("t-2", "m-1")))
	require.NoError(t, s.SaveTask(ctx, testTask("t-3", "m-2")))

	tasks, err := s.ListTasks(ctx, "m-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	all, err := s.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTask(ctx, testTask("t-1", "m-1")))
	require.NoError(t, s.DeleteTask(ctx, "t-1"))

	_, err := s.GetTask(ctx, "t-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, "t-1"), storage.ErrNotFound)
}

func TestChangeNotificationsFeedMirror(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mirror := reconcile.NewMirror()
	s.OnMissionChange(mirror.ApplyMissionChange)
	s.OnTaskChange(mirror.ApplyTaskChange)

	require.NoError(t, s.SaveMission(ctx, testMission("m-1")))
	require.NoError(t, s.SaveTask(ctx, testTask("t-1", "m-1")))

	got, err := mirror.GetMission("m-1")
	require.NoError(t, err)
	assert.Equal(t, "Ship the onboarding flow", got.Title)

	require.NoError(t, s.DeleteTask(ctx, "t-1"))
	_, err = mirror.GetTask("t-1")
	assert.ErrorIs(t, err, reconcile.ErrNotFound)
}

func TestEventsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := events.New(events.TypeStatementApproved, "m-1", "operator", "mission statement approved")
	first.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := events.New(events.TypePlanApproved, "m-1", "operator", "plan approved, 2 tasks created")
	second.CreatedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordEvent(ctx, first))
	require.NoError(t, s.RecordEvent(ctx, second))

	got, err := s.GetEvents(ctx, "m-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.TypePlanApproved, got[0].Type)

	limited, err := s.GetEvents(ctx, "m-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	val, err := s.GetConfig(ctx, "actor")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, s.SetConfig(ctx, "actor", "cron"))
	require.NoError(t, s.SetConfig(ctx, "actor", "operator"))

	val, err = s.GetConfig(ctx, "actor")
	require.NoError(t, err)
	assert.Equal(t, "operator", val)
}

func TestGetStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	planning := testMission("m-1")
	require.NoError(t, s.SaveMission(ctx, planning))

	active := testMission("m-2")
	active.Phase = types.PhaseTasks
	active.PhaseStatus = types.PhaseStatusApproved
	active.Status = types.MissionInProgress
	require.NoError(t, s.SaveMission(ctx, active))

	blocked := testTask("t-1", "m-2")
	blocked.Status = types.TaskStatusBlocked
	require.NoError(t, s.SaveTask(ctx, blocked))
	require.NoError(t, s.SaveTask(ctx, testTask("t-2", "m-2")))

	stats, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMissions)
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.BlockedTasks)
	assert.Equal(t, 1, stats.ByBucket["planning"])
	assert.Equal(t, 1, stats.ByBucket["in_progress"])
}
