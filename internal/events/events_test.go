package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/types"
)

func TestNewAssignsIDAndTimestamp(t *testing.T) {
	e := New(TypeTaskMoved, "t-1", "operator", "moved todo -> in_progress")

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, "t-1", e.SubjectID)

	other := New(TypeTaskMoved, "t-1", "operator", "moved again")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestConstructors(t *testing.T) {
	e := PlanApproved("m-1", "operator", 4)
	assert.Equal(t, TypePlanApproved, e.Type)
	assert.Contains(t, e.Message, "4 tasks created")

	e = TaskBlocked("t-2", "operator", "Blocked by: Build index")
	assert.Equal(t, TypeTaskBlocked, e.Type)
	assert.Equal(t, "Blocked by: Build index", e.Message)

	e = TaskMoved("t-2", "operator", types.TaskStatusTodo, types.TaskStatusDone)
	require.True(t, e.Type.IsValid())
	assert.Equal(t, "moved todo -> done", e.Message)

	e = MissionReopened("m-1", "operator", "tighten the copy")
	assert.Contains(t, e.Message, "tighten the copy")
}

func TestTypeIsValid(t *testing.T) {
	assert.True(t, TypePlanRejected.IsValid())
	assert.False(t, Type("telemetry").IsValid())
}

func TestDiscardSink(t *testing.T) {
	var s Sink = Discard{}
	assert.NoError(t, s.Record(New(TypeTaskMoved, "t-1", "x", "m")))
}
