// Package roster provides the fixed catalog of agents that plan documents
// may reference. The catalog is read-only: validation resolves agent_id and
// review_agent_id references against it.
package roster

import "sort"

// Agent describes one entry in the catalog.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Roster is an immutable set of known agents.
type Roster struct {
	byID map[string]Agent
}

// New builds a roster from the given agents. Later duplicates win, matching
// config-file override semantics.
func New(agents ...Agent) *Roster {
	r := &Roster{byID: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if a.ID == "" {
			continue
		}
		r.byID[a.ID] = a
	}
	return r
}

// Has reports whether the agent id resolves.
func (r *Roster) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Get returns the agent for id, if present.
func (r *Roster) Get(id string) (Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// List returns all agents sorted by id.
func (r *Roster) List() []Agent {
	out := make([]Agent, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of agents in the catalog.
func (r *Roster) Len() int {
	return len(r.byID)
}
