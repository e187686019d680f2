// Package blocking derives a task's effective status from its declared
// dependencies and the owning mission's lifecycle gate, and redirects moves
// that would start a task before its prerequisites are done.
package blocking

import (
	"fmt"
	"strings"

	"github.com/dispatchhq/dispatch/internal/types"
)

// GateDiagnostic is the cause string written when the owning mission's
// lifecycle gate is not yet satisfied.
const GateDiagnostic = "Blocked by mission lifecycle: plan not approved"

// IncompleteDependencies returns the subset of the task's declared
// dependencies whose status is not terminal-success, in declaration order.
// Dependencies absent from the sibling set are treated as satisfied.
func IncompleteDependencies(task *types.Task, siblings []*types.Task) []*types.Task {
	byID := make(map[string]*types.Task, len(siblings))
	for _, s := range siblings {
		byID[s.ID] = s
	}

	var incomplete []*types.Task
	for _, depID := range task.DependsOn {
		dep, ok := byID[depID]
		if !ok || dep.ID == task.ID {
			continue
		}
		if !dep.Status.IsTerminalSuccess() {
			incomplete = append(incomplete, dep)
		}
	}
	return incomplete
}

// BlockedMessage renders the human-readable cause for a set of incomplete
// dependencies.
func BlockedMessage(incomplete []*types.Task) string {
	titles := make([]string, len(incomplete))
	for i, dep := range incomplete {
		titles[i] = dep.Title
	}
	return "Blocked by: " + strings.Join(titles, ", ")
}

// EffectiveStatus derives the status actually shown and acted upon:
//
//  1. mission gate unmet: blocked, regardless of the task's own field
//  2. any incomplete dependency: blocked, with the dependency titles
//  3. otherwise: the task's stored status
//
// The second return value is the diagnostic; it is empty when the stored
// status passes through.
func EffectiveStatus(mission *types.Mission, task *types.Task, siblings []*types.Task) (types.TaskStatus, string) {
	if mission != nil && !mission.GateOpen() {
		return types.TaskStatusBlocked, GateDiagnostic
	}
	if incomplete := IncompleteDependencies(task, siblings); len(incomplete) > 0 {
		return types.TaskStatusBlocked, BlockedMessage(incomplete)
	}
	return task.Status, ""
}

// MoveResult describes the outcome of a requested status transition.
type MoveResult struct {
	// Applied is the status actually written.
	Applied types.TaskStatus

	// Note is the diagnostic written alongside it (empty when cleared).
	Note string

	// Redirected is true when the request was redirected to blocked
	// instead of applied; callers emit a distinct activity record for it.
	Redirected bool
}

// Move resolves a requested transition against the blocking rules. A
// request for in_progress or todo while dependencies are incomplete writes
// blocked with the diagnostic instead; every other target applies as
// requested with the diagnostic cleared.
func Move(task *types.Task, siblings []*types.Task, requested types.TaskStatus) MoveResult {
	if requested == types.TaskStatusInProgress || requested == types.TaskStatusTodo {
		if incomplete := IncompleteDependencies(task, siblings); len(incomplete) > 0 {
			return MoveResult{
				Applied:    types.TaskStatusBlocked,
				Note:       BlockedMessage(incomplete),
				Redirected: true,
			}
		}
	}
	return MoveResult{Applied: requested}
}

// SetDependencies replaces a task's dependency list after checking that the
// edit keeps the sibling graph acyclic. Plan validation only guards
// blueprints; this is the equivalent guard for post-creation edits.
func SetDependencies(task *types.Task, siblings []*types.Task, deps []string) error {
	seen := make(map[string]bool, len(deps))
	cleaned := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep == task.ID {
			return fmt.Errorf("task %s cannot depend on itself", task.ID)
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		cleaned = append(cleaned, dep)
	}

	adj := make(map[string][]string, len(siblings)+1)
	inSet := make(map[string]bool, len(siblings)+1)
	for _, s := range siblings {
		inSet[s.ID] = true
	}
	inSet[task.ID] = true
	for _, s := range siblings {
		if s.ID == task.ID {
			continue
		}
		for _, dep := range s.DependsOn {
			if inSet[dep] {
				adj[s.ID] = append(adj[s.ID], dep)
			}
		}
	}
	for _, dep := range cleaned {
		if inSet[dep] {
			adj[task.ID] = append(adj[task.ID], dep)
		}
	}

	if cycle := findCycle(adj, task.ID); len(cycle) > 0 {
		return fmt.Errorf("dependency edit would create a cycle: %s", strings.Join(cycle, " -> "))
	}

	task.DependsOn = cleaned
	return nil
}

// findCycle runs a DFS from the edited task and returns the cycle path if
// one is reachable.
func findCycle(adj map[string][]string, start string) []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var found []string

	var dfs func(node string)
	dfs = func(node string) {
		if found != nil {
			return
		}
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, dep := range adj[node] {
			if found != nil {
				return
			}
			if !visited[dep] {
				dfs(dep)
			} else if onStack[dep] {
				begin := 0
				for i, p := range path {
					if p == dep {
						begin = i
						break
					}
				}
				found = append(append([]string{}, path[begin:]...), dep)
				return
			}
		}

		onStack[node] = false
		path = path[:len(path)-1]
	}

	dfs(start)
	return found
}
