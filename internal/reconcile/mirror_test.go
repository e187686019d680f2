package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/types"
)

func TestMirrorGetUpsertRemove(t *testing.T) {
	m := NewMirror()

	_, err := m.GetMission("m-1")
	require.ErrorIs(t, err, ErrNotFound)

	mission := &types.Mission{ID: "m-1", Title: "Mission", Phase: types.PhaseStatement, PhaseStatus: types.PhaseStatusAwaitingApproval, Status: types.MissionScheduled}
	m.UpsertMission(mission)

	got, err := m.GetMission("m-1")
	require.NoError(t, err)
	assert.Equal(t, "Mission", got.Title)

	// The mirror hands out copies: mutating a returned row must not leak
	// back into the collection.
	got.Title = "Mutated"
	again, err := m.GetMission("m-1")
	require.NoError(t, err)
	assert.Equal(t, "Mission", again.Title)

	m.RemoveMission("m-1")
	_, err = m.GetMission("m-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirrorTaskCopySemantics(t *testing.T) {
	m := NewMirror()
	task := &types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusTodo, RootID: "m-1", DependsOn: []string{"t-0"}}
	m.UpsertTask(task)

	got, err := m.GetTask("t-1")
	require.NoError(t, err)
	got.DependsOn[0] = "poisoned"

	again, err := m.GetTask("t-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-0"}, again.DependsOn)
}

func TestMirrorListMissionsOrdered(t *testing.T) {
	m := NewMirror()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.UpsertMission(&types.Mission{ID: "m-b", Title: "B", CreatedAt: base.Add(time.Hour)})
	m.UpsertMission(&types.Mission{ID: "m-a", Title: "A", CreatedAt: base})
	m.UpsertMission(&types.Mission{ID: "m-c", Title: "C", CreatedAt: base.Add(time.Hour)})

	missions, err := m.ListMissions(context.Background())
	require.NoError(t, err)
	require.Len(t, missions, 3)
	assert.Equal(t, "m-a", missions[0].ID)
	assert.Equal(t, "m-b", missions[1].ID, "creation-time ties order by id")
	assert.Equal(t, "m-c", missions[2].ID)
}

func TestMirrorTasksForMission(t *testing.T) {
	m := NewMirror()
	m.UpsertTask(&types.Task{ID: "t-1", Title: "T1", RootID: "m-1"})
	m.UpsertTask(&types.Task{ID: "t-2", Title: "T2", RootID: "m-2"})
	m.UpsertTask(&types.Task{ID: "t-3", Title: "T3", RootID: "m-1"})

	tasks := m.TasksForMission("m-1")
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "m-1", task.RootID)
	}
}

func TestMirrorApplyChangeNotifications(t *testing.T) {
	m := NewMirror()

	// Authoritative insert lands in the mirror.
	m.ApplyTaskChange(TaskChange{Type: ChangeInsert, New: &types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusTodo}})
	got, err := m.GetTask("t-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusTodo, got.Status)

	// A later authoritative update wins over local state.
	m.UpsertTask(&types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusInProgress})
	m.ApplyTaskChange(TaskChange{Type: ChangeUpdate, New: &types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusDone}})
	got, err = m.GetTask("t-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusDone, got.Status, "last applied wins")

	m.ApplyTaskChange(TaskChange{Type: ChangeDelete, Old: &types.Task{ID: "t-1"}})
	_, err = m.GetTask("t-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirrorSubscribers(t *testing.T) {
	m := NewMirror()
	ch, cancel := m.SubscribeTasks(4)
	defer cancel()

	m.UpsertTask(&types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusTodo})
	m.UpsertTask(&types.Task{ID: "t-1", Title: "T", Status: types.TaskStatusInProgress})
	m.RemoveTask("t-1")

	first := <-ch
	assert.Equal(t, ChangeInsert, first.Type)

	second := <-ch
	assert.Equal(t, ChangeUpdate, second.Type)
	require.NotNil(t, second.Old)
	assert.Equal(t, types.TaskStatusTodo, second.Old.Status)

	third := <-ch
	assert.Equal(t, ChangeDelete, third.Type)
}

func TestDisplayedKeepRunningRule(t *testing.T) {
	m := NewMirror()

	// Establish a running status, then feed a transient todo recomputation.
	assert.Equal(t, types.TaskStatusInProgress, m.Displayed("t-1", types.TaskStatusInProgress))
	assert.Equal(t, types.TaskStatusInProgress, m.Displayed("t-1", types.TaskStatusTodo),
		"transient todo must not revert a running task")

	// The rule holds until a non-todo recomputation arrives.
	assert.Equal(t, types.TaskStatusInProgress, m.Displayed("t-1", types.TaskStatusTodo))
	assert.Equal(t, types.TaskStatusDone, m.Displayed("t-1", types.TaskStatusDone))

	// After the override clears, todo shows normally.
	assert.Equal(t, types.TaskStatusTodo, m.Displayed("t-1", types.TaskStatusTodo))
}

func TestDisplayedReviewAlsoProtected(t *testing.T) {
	m := NewMirror()

	assert.Equal(t, types.TaskStatusReview, m.Displayed("t-1", types.TaskStatusReview))
	assert.Equal(t, types.TaskStatusReview, m.Displayed("t-1", types.TaskStatusTodo))
}

func TestDisplayedNoHistoryPassesThrough(t *testing.T) {
	m := NewMirror()
	assert.Equal(t, types.TaskStatusTodo, m.Displayed("fresh", types.TaskStatusTodo))
}
