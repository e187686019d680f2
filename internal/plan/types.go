// Package plan parses and validates semi-structured mission plan documents
// and compiles them into task blueprints.
package plan

import "github.com/dispatchhq/dispatch/internal/types"

// Blueprint is an ephemeral draft task produced from one plan record. The
// Key is plan-local; it is replaced by a real task ID at materialization,
// and DependsOn entries name other blueprint keys.
type Blueprint struct {
	Key              string             `json:"key"`
	Title            string             `json:"title"`
	Instructions     string             `json:"instructions"`
	AgentID          string             `json:"agent_id"`
	DependsOn        []string           `json:"depends_on,omitempty"`
	Priority         int                `json:"priority"`
	DueOffsetMinutes int                `json:"due_offset_minutes,omitempty"`
	Domains          []string           `json:"domains,omitempty"`
	Review           types.ReviewConfig `json:"review"`
}

// Result is the outcome of validating a plan document. Blueprints are
// populated best-effort even when Valid is false so callers can render a
// preview alongside the error list.
type Result struct {
	Valid      bool        `json:"valid"`
	Errors     []string    `json:"errors"`
	Blueprints []Blueprint `json:"blueprints"`
}

// record is the tolerant wire shape of one plan entry. Primary field names
// come first; the alternates are accepted fallbacks.
type record struct {
	Key              string   `json:"key,omitempty" yaml:"key"`
	ID               string   `json:"id,omitempty" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	Instructions     string   `json:"instructions,omitempty" yaml:"instructions"`
	InputText        string   `json:"input_text,omitempty" yaml:"input_text"`
	AgentID          string   `json:"agent_id" yaml:"agent_id"`
	DependsOn        []string `json:"depends_on,omitempty" yaml:"depends_on"`
	Dependencies     []string `json:"dependencies,omitempty" yaml:"dependencies"`
	Priority         int      `json:"priority" yaml:"priority"`
	DueOffsetMinutes int      `json:"due_offset_minutes,omitempty" yaml:"due_offset_minutes"`
	Domains          []string `json:"domains,omitempty" yaml:"domains"`
	ReviewEnabled    bool     `json:"review_enabled,omitempty" yaml:"review_enabled"`
	ReviewAgentID    string   `json:"review_agent_id,omitempty" yaml:"review_agent_id"`
	MaxRevisions     int      `json:"max_revisions,omitempty" yaml:"max_revisions"`
}

// key returns the record's plan-local identifier, accepting id as fallback.
func (r *record) key() string {
	if r.Key != "" {
		return r.Key
	}
	return r.ID
}

// instructions returns the record's instruction text, accepting input_text
// as fallback.
func (r *record) instructions() string {
	if r.Instructions != "" {
		return r.Instructions
	}
	return r.InputText
}

// dependsOn returns the record's dependency list, accepting dependencies as
// fallback.
func (r *record) dependsOn() []string {
	if len(r.DependsOn) > 0 {
		return r.DependsOn
	}
	return r.Dependencies
}

// document is the tolerant envelope: the task array is accepted under
// "tasks" with "missions" and "plan" as documented fallbacks.
type document struct {
	Tasks    []record `json:"tasks,omitempty" yaml:"tasks"`
	Missions []record `json:"missions,omitempty" yaml:"missions"`
	Plan     []record `json:"plan,omitempty" yaml:"plan"`
}

// records returns the first non-empty task array.
func (d *document) records() []record {
	if len(d.Tasks) > 0 {
		return d.Tasks
	}
	if len(d.Missions) > 0 {
		return d.Missions
	}
	return d.Plan
}
