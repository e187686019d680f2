package graph

import (
	"sort"

	"github.com/dispatchhq/dispatch/internal/types"
)

// Build derives the layered graph for one mission's tasks. Dependency ids
// that are not present in the input set are ignored for leveling purposes:
// they are treated as already satisfied.
//
// The builder never fails. If the set contains a cycle, the tasks that
// cannot be ordered are appended in their original input order with
// best-effort levels; cycle rejection belongs to plan validation, which
// runs before tasks are materialized.
func Build(tasks []*types.Task, layout Layout) *Graph {
	g := &Graph{Nodes: make([]*Node, 0, len(tasks)), Edges: make([]Edge, 0)}
	if len(tasks) == 0 {
		return g
	}

	inSet := make(map[string]*types.Task, len(tasks))
	for _, t := range tasks {
		inSet[t.ID] = t
	}

	// Forward deps restricted to the input set, reverse map, indegrees.
	deps := make(map[string][]string, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	indegree := make(map[string]int, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if _, ok := inSet[dep]; !ok || dep == t.ID {
				continue
			}
			deps[t.ID] = append(deps[t.ID], dep)
			dependents[dep] = append(dependents[dep], t.ID)
			indegree[t.ID]++
		}
	}

	less := func(a, b *types.Task) bool {
		at, aok := types.ParseWhen(a.DueAt)
		bt, bok := types.ParseWhen(b.DueAt)
		if aok != bok {
			return aok // tasks with parseable due times sort first
		}
		if aok && !at.Equal(bt) {
			return at.Before(bt)
		}
		return a.Title < b.Title
	}

	// Kahn's algorithm. The ready queue is re-sorted after every insertion
	// so the deterministic ordering holds at every step, not just at seed.
	var queue []*types.Task
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool { return less(queue[i], queue[j]) })

	order := make([]*types.Task, 0, len(tasks))
	ordered := make(map[string]bool, len(tasks))
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		order = append(order, t)
		ordered[t.ID] = true

		inserted := false
		for _, depID := range dependents[t.ID] {
			indegree[depID]--
			if indegree[depID] == 0 {
				queue = append(queue, inSet[depID])
				inserted = true
			}
		}
		if inserted {
			sort.SliceStable(queue, func(i, j int) bool { return less(queue[i], queue[j]) })
		}
	}

	// Cycle members never reach indegree zero; append them in input order
	// so every task gets a node and the builder terminates.
	for _, t := range tasks {
		if !ordered[t.ID] {
			order = append(order, t)
		}
	}

	// Level assignment in topological order: each dependency's level is
	// already known (0 for unordered cycle members whose deps follow them).
	level := make(map[string]int, len(tasks))
	for _, t := range order {
		lv := 0
		for _, dep := range deps[t.ID] {
			if dl, ok := level[dep]; ok && dl+1 > lv {
				lv = dl + 1
			}
		}
		level[t.ID] = lv
	}

	// Critical path: longest chain by node count, scanned in topological
	// order so ties resolve deterministically (last maximum wins).
	distance := make(map[string]int, len(tasks))
	previous := make(map[string]string, len(tasks))
	endID := ""
	for _, t := range order {
		best := -1
		for _, dep := range deps[t.ID] {
			if distance[dep] > best {
				best = distance[dep]
				previous[t.ID] = dep
			}
		}
		d := 0
		if best >= 0 {
			d = best + 1
		}
		distance[t.ID] = d
		if endID == "" || d >= distance[endID] {
			endID = t.ID
		}
	}

	// The walk guards against revisiting a node: cyclic inputs can thread
	// previous links back into themselves.
	onPath := make(map[string]bool)
	var path []string
	for id := endID; id != "" && !onPath[id]; {
		path = append(path, id)
		onPath[id] = true
		id = previous[id]
	}
	// Reverse into execution order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	g.CriticalPath = path
	g.CriticalLength = distance[endID]

	criticalEdge := make(map[[2]string]bool)
	for i := 1; i < len(path); i++ {
		criticalEdge[[2]string{path[i-1], path[i]}] = true
	}

	// Columns: tasks grouped by level, sorted by the same comparator.
	maxLevel := 0
	columns := make(map[int][]*types.Task)
	for _, t := range order {
		lv := level[t.ID]
		columns[lv] = append(columns[lv], t)
		if lv > maxLevel {
			maxLevel = lv
		}
	}

	nodeByID := make(map[string]*Node, len(tasks))
	maxRows := 0
	for lv := 0; lv <= maxLevel; lv++ {
		col := columns[lv]
		sort.SliceStable(col, func(i, j int) bool { return less(col[i], col[j]) })
		if len(col) > maxRows {
			maxRows = len(col)
		}
		for row, t := range col {
			n := &Node{
				Task:     t,
				Level:    lv,
				X:        lv*layout.ColumnWidth + layout.Padding,
				Y:        row*layout.RowHeight + layout.Padding,
				Critical: onPath[t.ID],
			}
			g.Nodes = append(g.Nodes, n)
			nodeByID[t.ID] = n
		}
	}

	// Edges in topological order of the dependent, deps in declaration order.
	for _, t := range order {
		for _, dep := range deps[t.ID] {
			g.Edges = append(g.Edges, Edge{
				From:     dep,
				To:       t.ID,
				Critical: criticalEdge[[2]string{dep, t.ID}],
			})
		}
	}

	g.Width = (maxLevel+1)*layout.ColumnWidth + 2*layout.Padding
	g.Height = maxRows*layout.RowHeight + 2*layout.Padding
	return g
}
