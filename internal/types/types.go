// Package types defines the core mission and task records shared across the
// dispatch engine.
package types

import (
	"fmt"
	"time"
)

// Task is a concrete, schedulable unit of execution generated from an
// approved mission plan.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Instructions string       `json:"instructions"`
	Status       TaskStatus   `json:"status"`
	StatusNote   string       `json:"status_note,omitempty"` // human-readable blocking cause
	Priority     int          `json:"priority"`
	AgentID      string       `json:"agent_id"`
	DependsOn    []string     `json:"depends_on,omitempty"`
	RootID       string       `json:"root_id,omitempty"`   // owning mission
	ParentID     string       `json:"parent_id,omitempty"` // optional grouping task
	Round        int          `json:"round"`               // revision round counter
	Domains      []string     `json:"domains,omitempty"`
	Review       ReviewConfig `json:"review"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	DueAt        string       `json:"due_at,omitempty"` // RFC 3339; kept as text, may be unparseable
}

// Validate checks if the task has valid field values.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if t.Priority < 0 || t.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", t.Priority)
	}
	for _, dep := range t.DependsOn {
		if dep == t.ID && t.ID != "" {
			return fmt.Errorf("task cannot depend on itself")
		}
	}
	if t.Review.Enabled && t.Review.AgentID == "" {
		return fmt.Errorf("review_agent_id is required when review is enabled")
	}
	return nil
}

// TaskStatus represents the stored execution state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsValid checks if the status value is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusBlocked,
		TaskStatusReview, TaskStatusDone, TaskStatusFailed:
		return true
	}
	return false
}

// IsTerminalSuccess reports whether the status satisfies downstream
// dependencies. Only done counts; a blocked or failed dependency still
// blocks its dependents.
func (s TaskStatus) IsTerminalSuccess() bool {
	return s == TaskStatusDone
}

// Mission is the top-level unit of work a human operator interacts with.
// It progresses through an approval lifecycle and owns zero or more
// generated tasks.
type Mission struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Phase        Phase         `json:"phase"`
	PhaseStatus  PhaseStatus   `json:"phase_status"`
	Statement    string        `json:"statement,omitempty"`
	InputText    string        `json:"input_text,omitempty"` // freeform text the statement falls back to
	PlanDocument string        `json:"plan_document,omitempty"`
	Status       MissionStatus `json:"status"`
	ScheduledAt  string        `json:"scheduled_at,omitempty"` // RFC 3339; kept as text, may be unparseable
	Feedback     string        `json:"feedback,omitempty"`
	Review       ReviewConfig  `json:"review"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Validate checks if the mission has valid field values.
func (m *Mission) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !m.Phase.IsValid() {
		return fmt.Errorf("invalid phase: %s", m.Phase)
	}
	if !m.PhaseStatus.IsValid() {
		return fmt.Errorf("invalid phase status: %s", m.PhaseStatus)
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", m.Status)
	}
	return nil
}

// GateOpen reports whether the mission's lifecycle gate is satisfied.
// Generated tasks are only eligible to execute once the mission has
// reached the tasks phase with an approved plan.
func (m *Mission) GateOpen() bool {
	return m.Phase == PhaseTasks && m.PhaseStatus == PhaseStatusApproved
}

// Phase is the mission lifecycle axis. Phases are ordered and monotonic;
// no backward transition is exposed.
type Phase string

const (
	PhaseStatement Phase = "statement"
	PhasePlan      Phase = "plan"
	PhaseTasks     Phase = "tasks"
)

// IsValid checks if the phase value is valid.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseStatement, PhasePlan, PhaseTasks:
		return true
	}
	return false
}

// PhaseStatus is the per-phase approval state, independent of phase.
type PhaseStatus string

const (
	PhaseStatusAwaitingApproval PhaseStatus = "awaiting_approval"
	PhaseStatusApproved         PhaseStatus = "approved"
)

// IsValid checks if the phase status value is valid.
func (s PhaseStatus) IsValid() bool {
	return s == PhaseStatusAwaitingApproval || s == PhaseStatusApproved
}

// MissionStatus is a mission's operational execution state, orthogonal to
// its lifecycle phase.
type MissionStatus string

const (
	MissionScheduled     MissionStatus = "scheduled"
	MissionAssigned      MissionStatus = "assigned"
	MissionInProgress    MissionStatus = "in_progress"
	MissionPendingReview MissionStatus = "pending_review"
	MissionDone          MissionStatus = "done"
	MissionFailed        MissionStatus = "failed"
	MissionRevision      MissionStatus = "revision"
)

// IsValid checks if the mission status value is valid.
func (s MissionStatus) IsValid() bool {
	switch s {
	case MissionScheduled, MissionAssigned, MissionInProgress,
		MissionPendingReview, MissionDone, MissionFailed, MissionRevision:
		return true
	}
	return false
}

// ReviewConfig controls the optional review loop for a mission or task.
type ReviewConfig struct {
	Enabled      bool   `json:"enabled"`
	AgentID      string `json:"agent_id,omitempty"`
	MaxRevisions int    `json:"max_revisions,omitempty"`
}

// Statistics provides aggregate metrics over the mission collection.
type Statistics struct {
	TotalMissions int            `json:"total_missions"`
	TotalTasks    int            `json:"total_tasks"`
	ByBucket      map[string]int `json:"by_bucket"`
	BlockedTasks  int            `json:"blocked_tasks"`
}

// ParseWhen parses a stored timestamp string. The second return value is
// false for empty or unparseable input; callers sort unparseable times
// after valid ones rather than failing.
func ParseWhen(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
