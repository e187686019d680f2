package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/types"
)

func approvedMission() *types.Mission {
	return &types.Mission{
		ID:          "m-1",
		Title:       "Mission",
		Phase:       types.PhaseTasks,
		PhaseStatus: types.PhaseStatusApproved,
		Status:      types.MissionAssigned,
	}
}

func TestIncompleteDependencies(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Prepare fixtures", Status: types.TaskStatusInProgress}
	z := &types.Task{ID: "z", Title: "Provision database", Status: types.TaskStatusDone}
	x := &types.Task{ID: "x", Title: "Run migration", Status: types.TaskStatusTodo, DependsOn: []string{"y", "z", "gone"}}

	incomplete := IncompleteDependencies(x, []*types.Task{x, y, z})
	require.Len(t, incomplete, 1)
	assert.Equal(t, "y", incomplete[0].ID)
}

func TestBlockedDependencyCountsAsIncomplete(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Y", Status: types.TaskStatusBlocked}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusTodo, DependsOn: []string{"y"}}

	incomplete := IncompleteDependencies(x, []*types.Task{x, y})
	assert.Len(t, incomplete, 1)
}

func TestEffectiveStatusGate(t *testing.T) {
	mission := &types.Mission{
		ID:          "m-1",
		Title:       "Mission",
		Phase:       types.PhasePlan,
		PhaseStatus: types.PhaseStatusAwaitingApproval,
	}
	task := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusInProgress}

	status, note := EffectiveStatus(mission, task, []*types.Task{task})
	assert.Equal(t, types.TaskStatusBlocked, status)
	assert.Equal(t, GateDiagnostic, note)

	// The gate outranks the task's own stored status in every phase short
	// of tasks/approved.
	mission.Phase = types.PhaseTasks
	status, note = EffectiveStatus(mission, task, []*types.Task{task})
	assert.Equal(t, types.TaskStatusBlocked, status)

	mission.PhaseStatus = types.PhaseStatusApproved
	status, note = EffectiveStatus(mission, task, []*types.Task{task})
	assert.Equal(t, types.TaskStatusInProgress, status)
	assert.Empty(t, note)
}

func TestEffectiveStatusBlockedByDependencies(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Build index", Status: types.TaskStatusTodo}
	z := &types.Task{ID: "z", Title: "Load corpus", Status: types.TaskStatusInProgress}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusTodo, DependsOn: []string{"y", "z"}}

	status, note := EffectiveStatus(approvedMission(), x, []*types.Task{x, y, z})
	assert.Equal(t, types.TaskStatusBlocked, status)
	assert.Equal(t, "Blocked by: Build index, Load corpus", note)
}

func TestEffectiveStatusPassThroughOnceDepsDone(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Y", Status: types.TaskStatusDone}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusReview, DependsOn: []string{"y"}}

	status, note := EffectiveStatus(approvedMission(), x, []*types.Task{x, y})
	assert.Equal(t, types.TaskStatusReview, status)
	assert.Empty(t, note)
}

func TestMoveRedirectsToBlocked(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Compile assets", Status: types.TaskStatusTodo}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusTodo, DependsOn: []string{"y"}}
	siblings := []*types.Task{x, y}

	for _, requested := range []types.TaskStatus{types.TaskStatusInProgress, types.TaskStatusTodo} {
		result := Move(x, siblings, requested)
		assert.Equal(t, types.TaskStatusBlocked, result.Applied, "requested %s", requested)
		assert.Equal(t, "Blocked by: Compile assets", result.Note)
		assert.True(t, result.Redirected)
	}
}

func TestMoveAppliesOtherTargets(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Y", Status: types.TaskStatusTodo}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusInProgress, DependsOn: []string{"y"}}
	siblings := []*types.Task{x, y}

	// Moves to states other than in_progress/todo are applied as requested
	// even with incomplete dependencies, and the diagnostic is cleared.
	for _, requested := range []types.TaskStatus{types.TaskStatusReview, types.TaskStatusDone, types.TaskStatusFailed} {
		result := Move(x, siblings, requested)
		assert.Equal(t, requested, result.Applied)
		assert.Empty(t, result.Note)
		assert.False(t, result.Redirected)
	}
}

func TestMoveAllowedOnceDepsComplete(t *testing.T) {
	y := &types.Task{ID: "y", Title: "Y", Status: types.TaskStatusDone}
	x := &types.Task{ID: "x", Title: "X", Status: types.TaskStatusTodo, DependsOn: []string{"y"}}

	result := Move(x, []*types.Task{x, y}, types.TaskStatusInProgress)
	assert.Equal(t, types.TaskStatusInProgress, result.Applied)
	assert.False(t, result.Redirected)
}

func TestSetDependenciesRejectsCycle(t *testing.T) {
	a := &types.Task{ID: "a", Title: "A", Status: types.TaskStatusTodo}
	b := &types.Task{ID: "b", Title: "B", Status: types.TaskStatusTodo, DependsOn: []string{"a"}}
	c := &types.Task{ID: "c", Title: "C", Status: types.TaskStatusTodo, DependsOn: []string{"b"}}
	siblings := []*types.Task{a, b, c}

	err := SetDependencies(a, siblings, []string{"c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	assert.Empty(t, a.DependsOn, "rejected edit must not mutate the task")
}

func TestSetDependenciesAcceptsAcyclicEdit(t *testing.T) {
	a := &types.Task{ID: "a", Title: "A", Status: types.TaskStatusTodo}
	b := &types.Task{ID: "b", Title: "B", Status: types.TaskStatusTodo}
	siblings := []*types.Task{a, b}

	require.NoError(t, SetDependencies(a, siblings, []string{"b", "b"}))
	assert.Equal(t, []string{"b"}, a.DependsOn, "duplicates collapse")
}

func TestSetDependenciesRejectsSelf(t *testing.T) {
	a := &types.Task{ID: "a", Title: "A", Status: types.TaskStatusTodo}

	err := SetDependencies(a, []*types.Task{a}, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot depend on itself")
}
