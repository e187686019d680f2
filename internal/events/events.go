// Package events is the append-only activity sink. Every mission and task
// state transition emits one record here for observability; the engine
// itself never reads them back.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type categorizes an activity record.
type Type string

const (
	TypeStatementApproved Type = "statement_approved"
	TypePlanApproved      Type = "plan_approved"
	TypePlanRejected      Type = "plan_rejected"
	TypeTasksRegenerated  Type = "tasks_regenerated"
	TypeTaskMoved         Type = "task_moved"
	TypeTaskBlocked       Type = "task_blocked"
	TypeMissionMoved      Type = "mission_moved"
	TypeMissionReopened   Type = "mission_reopened"
)

// IsValid checks if the event type value is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeStatementApproved, TypePlanApproved, TypePlanRejected,
		TypeTasksRegenerated, TypeTaskMoved, TypeTaskBlocked,
		TypeMissionMoved, TypeMissionReopened:
		return true
	}
	return false
}

// Event is one activity record.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	AgentRef  string    `json:"agent_ref,omitempty"` // actor: agent id or operator name
	SubjectID string    `json:"subject_id"`          // mission or task id
	CreatedAt time.Time `json:"created_at"`
}

// New creates an event with a fresh id and timestamp.
func New(eventType Type, subjectID, agentRef, message string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		AgentRef:  agentRef,
		SubjectID: subjectID,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink receives activity records. Implementations must not block the
// caller for long; transitions are emitted from synchronous mutation
// paths.
type Sink interface {
	Record(event *Event) error
}

// Discard is a Sink that drops everything, for callers that do not care
// about activity (tests, one-shot CLI commands).
type Discard struct{}

// Record implements Sink.
func (Discard) Record(*Event) error { return nil }
