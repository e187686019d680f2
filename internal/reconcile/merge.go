package reconcile

import "github.com/dispatchhq/dispatch/internal/types"

// Displayed applies the keep-running rule to a freshly recomputed status
// and returns the status the UI should show.
//
// Keep-running rule: if the previously displayed status was in_progress or
// review and the recomputation yields todo, keep showing the previous
// status until the next non-todo recomputation arrives. A transient
// phase-derived recomputation racing an inbound change notification must
// not visually revert a task a human just watched start. This is a
// deliberate UX continuity exception, not a consistency guarantee; the
// mirror's stored row is untouched.
func (m *Mirror) Displayed(taskID string, recomputed types.TaskStatus) types.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.shown[taskID]
	if ok && recomputed == types.TaskStatusTodo &&
		(prev == types.TaskStatusInProgress || prev == types.TaskStatusReview) {
		return prev
	}

	m.shown[taskID] = recomputed
	return recomputed
}
