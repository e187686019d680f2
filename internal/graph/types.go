// Package graph builds layered dependency graphs for a mission's task set:
// topological levels, deterministic column layout, and the critical path.
package graph

import "github.com/dispatchhq/dispatch/internal/types"

// Node wraps a task with its computed level and layout coordinate. Nodes
// are derived, never persisted; the builder recomputes them from scratch on
// every invocation.
type Node struct {
	Task     *types.Task `json:"task"`
	Level    int         `json:"level"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Critical bool        `json:"critical"`
}

// Edge is a dependency edge from a prerequisite task to its dependent.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Critical bool   `json:"critical"`
}

// Graph is the full derived layout for one mission's task set.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`

	// CriticalPath holds the task IDs of the longest dependency chain, in
	// execution order. CriticalLength is the chain's maximum distance value
	// (edge count: 0 for a single unblocked task).
	CriticalPath   []string `json:"critical_path"`
	CriticalLength int      `json:"critical_length"`

	// Canvas extents for rendering.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layout holds the fixed geometry used to assign node coordinates.
type Layout struct {
	ColumnWidth int
	RowHeight   int
	Padding     int
}

// DefaultLayout matches the board renderer's default geometry.
func DefaultLayout() Layout {
	return Layout{ColumnWidth: 280, RowHeight: 120, Padding: 40}
}
