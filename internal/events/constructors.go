package events

import (
	"fmt"

	"github.com/dispatchhq/dispatch/internal/types"
)

// StatementApproved records a mission advancing from statement to plan.
func StatementApproved(missionID, actor string) *Event {
	return New(TypeStatementApproved, missionID, actor, "mission statement approved")
}

// PlanApproved records a successful plan approval and the number of tasks
// materialized from it.
func PlanApproved(missionID, actor string, taskCount int) *Event {
	return New(TypePlanApproved, missionID, actor,
		fmt.Sprintf("plan approved, %d tasks created", taskCount))
}

// PlanRejected records a failed plan approval with its error count.
func PlanRejected(missionID, actor string, errorCount int) *Event {
	return New(TypePlanRejected, missionID, actor,
		fmt.Sprintf("plan rejected with %d validation errors", errorCount))
}

// TasksRegenerated records prior generated tasks being replaced on
// re-approval.
func TasksRegenerated(missionID, actor string, removed, created int) *Event {
	return New(TypeTasksRegenerated, missionID, actor,
		fmt.Sprintf("regenerated tasks: %d removed, %d created", removed, created))
}

// TaskMoved records a normal status transition applied as requested.
func TaskMoved(taskID, actor string, from, to types.TaskStatus) *Event {
	return New(TypeTaskMoved, taskID, actor, fmt.Sprintf("moved %s -> %s", from, to))
}

// TaskBlocked records a move redirected to blocked; distinct from
// TaskMoved so consumers can tell a redirect from a normal transition.
func TaskBlocked(taskID, actor, cause string) *Event {
	return New(TypeTaskBlocked, taskID, actor, cause)
}

// MissionMoved records a mission-level bucket move.
func MissionMoved(missionID, actor string, from, to types.MissionStatus) *Event {
	return New(TypeMissionMoved, missionID, actor, fmt.Sprintf("moved %s -> %s", from, to))
}

// MissionReopened records a done mission returning to the revision state.
func MissionReopened(missionID, actor, feedback string) *Event {
	return New(TypeMissionReopened, missionID, actor,
		fmt.Sprintf("reopened with feedback: %s", feedback))
}
