package plan

import (
	"fmt"
	"strings"

	"github.com/dispatchhq/dispatch/internal/roster"
	"github.com/dispatchhq/dispatch/internal/types"
)

// Validate parses a plan document and checks its structural and referential
// integrity against the agent roster. All problems are accumulated rather
// than returned fail-fast, so the caller can render every error at once.
// Blueprints are returned best-effort even when validation fails.
func Validate(text string, agents *roster.Roster) Result {
	result := Result{Errors: make([]string, 0)}

	doc, err := parseDocument(text)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	records := doc.records()
	if len(records) == 0 {
		result.Errors = append(result.Errors, "plan document contains no tasks")
		return result
	}

	// Required fields, tagged with the record's position and key.
	for i, r := range records {
		label := fmt.Sprintf("task %d", i+1)
		if k := r.key(); k != "" {
			label = fmt.Sprintf("task %d (%q)", i+1, k)
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: missing key", label))
		}
		if strings.TrimSpace(r.Title) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: missing title", label))
		}
		if strings.TrimSpace(r.instructions()) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: missing instructions", label))
		}
	}

	// Duplicate keys, reported once per offending key.
	counts := make(map[string]int)
	order := make([]string, 0, len(records))
	for _, r := range records {
		k := r.key()
		if k == "" {
			continue
		}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		if counts[k] > 1 {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate key %q appears %d times", k, counts[k]))
		}
	}

	// Dependency references must name known keys and never the record itself.
	for _, r := range records {
		k := r.key()
		if k == "" {
			continue
		}
		for _, dep := range r.dependsOn() {
			if dep == k {
				result.Errors = append(result.Errors, fmt.Sprintf("task %q: depends_on references itself", k))
				continue
			}
			if counts[dep] == 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("task %q: depends_on references unknown key %q", k, dep))
			}
		}
	}

	// Circular dependencies over edges whose target is a known key.
	for _, cycle := range detectCycles(records, counts) {
		result.Errors = append(result.Errors, fmt.Sprintf("circular dependency: %s", strings.Join(cycle, " -> ")))
	}

	// Agent references resolve against the roster.
	for _, r := range records {
		k := r.key()
		if k == "" {
			continue
		}
		if r.AgentID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("task %q: missing agent_id", k))
		} else if !agents.Has(r.AgentID) {
			result.Errors = append(result.Errors, fmt.Sprintf("task %q: unknown agent %q", k, r.AgentID))
		}
		if r.ReviewEnabled {
			if r.ReviewAgentID == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("task %q: review enabled but no review_agent_id", k))
			} else if !agents.Has(r.ReviewAgentID) {
				result.Errors = append(result.Errors, fmt.Sprintf("task %q: unknown review agent %q", k, r.ReviewAgentID))
			}
		}
	}

	result.Blueprints = compile(records, counts)
	result.Valid = len(result.Errors) == 0
	return result
}

// compile turns records into blueprints. Unknown and self dependency
// references are stripped from the final lists even though they were also
// reported as errors.
func compile(records []record, known map[string]int) []Blueprint {
	blueprints := make([]Blueprint, 0, len(records))
	for _, r := range records {
		k := r.key()
		var deps []string
		seen := make(map[string]bool)
		for _, dep := range r.dependsOn() {
			if dep == k || known[dep] == 0 || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}

		blueprints = append(blueprints, Blueprint{
			Key:              k,
			Title:            strings.TrimSpace(r.Title),
			Instructions:     strings.TrimSpace(r.instructions()),
			AgentID:          r.AgentID,
			DependsOn:        deps,
			Priority:         r.Priority,
			DueOffsetMinutes: r.DueOffsetMinutes,
			Domains:          r.Domains,
			Review: types.ReviewConfig{
				Enabled:      r.ReviewEnabled,
				AgentID:      r.ReviewAgentID,
				MaxRevisions: r.MaxRevisions,
			},
		})
	}
	return blueprints
}

// detectCycles runs a DFS over the blueprint dependency graph and returns
// every distinct cycle reachable from an unvisited root. Each cycle is the
// ordered path from the cycle's start back to the repeated node. Edges to
// unknown keys and self-edges are excluded; those are reported separately.
func detectCycles(records []record, known map[string]int) [][]string {
	graph := make(map[string][]string, len(records))
	roots := make([]string, 0, len(records))
	for _, r := range records {
		k := r.key()
		if k == "" {
			continue
		}
		if _, ok := graph[k]; ok {
			continue // duplicate key, first occurrence wins
		}
		roots = append(roots, k)
		for _, dep := range r.dependsOn() {
			if dep != k && known[dep] > 0 {
				graph[k] = append(graph[k], dep)
			}
		}
		if graph[k] == nil {
			graph[k] = []string{}
		}
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var cycles [][]string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, dep := range graph[node] {
			if !visited[dep] {
				dfs(dep)
			} else if onStack[dep] {
				// Extract the cycle from the current path and close it.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), dep)
				cycles = append(cycles, cycle)
			}
		}

		onStack[node] = false
		path = path[:len(path)-1]
	}

	for _, k := range roots {
		if !visited[k] {
			path = path[:0]
			dfs(k)
		}
	}

	return cycles
}
