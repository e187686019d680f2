// Package lifecycle drives the mission phase state machine: statement to
// plan to tasks, each gated on explicit operator approval. Transitions
// mutate the in-memory mirror first and write through to storage; a failed
// write is logged and the optimistic mutation stands until an authoritative
// change notification corrects it.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dispatchhq/dispatch/internal/blocking"
	"github.com/dispatchhq/dispatch/internal/events"
	"github.com/dispatchhq/dispatch/internal/plan"
	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/roster"
	"github.com/dispatchhq/dispatch/internal/schedule"
	"github.com/dispatchhq/dispatch/internal/storage"
	"github.com/dispatchhq/dispatch/internal/types"
)

// Config holds the orchestrator's collaborators.
type Config struct {
	// Mirror is the authoritative in-memory state. Required.
	Mirror *reconcile.Mirror

	// Agents is the roster plan documents validate against. Required.
	Agents *roster.Roster

	// Store is the write-through persistence backend. Optional; when nil
	// the mirror alone carries state (tests, dry runs).
	Store storage.Storage

	// Sink receives activity records. Optional; defaults to events.Discard.
	Sink events.Sink

	// Ticks is signalled after mutations that may change due-based
	// bucketing. Optional.
	Ticks *schedule.TickRequester

	// Actor is stamped on activity records. Defaults to "operator".
	Actor string

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Orchestrator applies lifecycle transitions to missions and tasks.
type Orchestrator struct {
	mirror *reconcile.Mirror
	agents *roster.Roster
	store  storage.Storage
	sink   events.Sink
	ticks  *schedule.TickRequester
	actor  string
	now    func() time.Time
}

// New creates an orchestrator from the config.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		mirror: cfg.Mirror,
		agents: cfg.Agents,
		store:  cfg.Store,
		sink:   cfg.Sink,
		ticks:  cfg.Ticks,
		actor:  cfg.Actor,
		now:    cfg.Now,
	}
	if o.sink == nil {
		o.sink = events.Discard{}
	}
	if o.actor == "" {
		o.actor = "operator"
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// CreateMission registers a new mission in the statement phase.
func (o *Orchestrator) CreateMission(ctx context.Context, title, inputText, scheduledAt string) (*types.Mission, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("mission title is required")
	}
	now := o.now().UTC()
	m := &types.Mission{
		ID:          "m-" + uuid.NewString(),
		Title:       title,
		Phase:       types.PhaseStatement,
		PhaseStatus: types.PhaseStatusAwaitingApproval,
		InputText:   inputText,
		Status:      types.MissionScheduled,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.persistMission(ctx, m)
	o.mirror.UpsertMission(m)
	o.requestTick()
	return m, nil
}

// ApproveStatement advances a mission from the statement phase to the plan
// phase. The statement text resolves from the explicit argument, then the
// stored statement, then the mission's free-text input; empty after
// trimming fails the transition.
func (o *Orchestrator) ApproveStatement(ctx context.Context, missionID, statement string) (*types.Mission, error) {
	m, err := o.mirror.GetMission(missionID)
	if err != nil {
		return nil, err
	}
	if m.Phase != types.PhaseStatement {
		return nil, &GuardError{MissionID: missionID,
			Reason: fmt.Sprintf("cannot approve statement in phase %s", m.Phase)}
	}

	resolved := strings.TrimSpace(statement)
	if resolved == "" {
		resolved = strings.TrimSpace(m.Statement)
	}
	if resolved == "" {
		resolved = strings.TrimSpace(m.InputText)
	}
	if resolved == "" {
		return nil, &GuardError{MissionID: missionID, Reason: "statement is empty"}
	}

	m.Statement = resolved
	m.Phase = types.PhasePlan
	m.PhaseStatus = types.PhaseStatusAwaitingApproval
	m.UpdatedAt = o.now().UTC()

	o.persistMission(ctx, m)
	o.mirror.UpsertMission(m)
	o.record(events.StatementApproved(missionID, o.actor))
	return m, nil
}

// ApprovePlan validates the plan document and, when it is clean,
// materializes tasks from its blueprints. Any validation error fails the
// whole transition with the accumulated list and no mutation. Re-approval
// from the tasks phase replaces the previously generated tasks.
func (o *Orchestrator) ApprovePlan(ctx context.Context, missionID, document string) (*types.Mission, []*types.Task, error) {
	m, err := o.mirror.GetMission(missionID)
	if err != nil {
		return nil, nil, err
	}
	if m.Phase != types.PhasePlan && m.Phase != types.PhaseTasks {
		return nil, nil, &GuardError{MissionID: missionID,
			Reason: fmt.Sprintf("cannot approve plan in phase %s", m.Phase)}
	}

	if strings.TrimSpace(document) == "" {
		document = m.PlanDocument
	}

	result := plan.Validate(document, o.agents)
	if !result.Valid {
		o.record(events.PlanRejected(missionID, o.actor, len(result.Errors)))
		return nil, nil, &ValidationError{MissionID: missionID, Errors: result.Errors}
	}

	prior := o.mirror.TasksForMission(missionID)
	round := 0
	for _, t := range prior {
		if t.Round >= round {
			round = t.Round + 1
		}
	}
	for _, t := range prior {
		o.deleteTask(ctx, t.ID)
		o.mirror.RemoveTask(t.ID)
	}

	now := o.now().UTC()
	idByKey := make(map[string]string, len(result.Blueprints))
	tasks := make([]*types.Task, 0, len(result.Blueprints))
	for _, bp := range result.Blueprints {
		id := "t-" + uuid.NewString()
		idByKey[bp.Key] = id
		task := &types.Task{
			ID:           id,
			Title:        bp.Title,
			Instructions: bp.Instructions,
			Status:       types.TaskStatusTodo,
			Priority:     bp.Priority,
			AgentID:      bp.AgentID,
			RootID:       missionID,
			Round:        round,
			Domains:      bp.Domains,
			Review:       bp.Review,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if bp.DueOffsetMinutes > 0 {
			task.DueAt = now.Add(time.Duration(bp.DueOffsetMinutes) * time.Minute).Format(time.RFC3339)
		}
		tasks = append(tasks, task)
	}
	// Rewire blueprint keys to the freshly assigned task ids. Keys that do
	// not resolve are dropped rather than carried as dangling references.
	for i, bp := range result.Blueprints {
		for _, key := range bp.DependsOn {
			if id, ok := idByKey[key]; ok {
				tasks[i].DependsOn = append(tasks[i].DependsOn, id)
			}
		}
	}
	for _, task := range tasks {
		o.persistTask(ctx, task)
		o.mirror.UpsertTask(task)
	}

	m.PlanDocument = document
	m.Phase = types.PhaseTasks
	m.PhaseStatus = types.PhaseStatusApproved
	if len(tasks) > 0 {
		m.Status = types.MissionAssigned
	}
	m.UpdatedAt = now
	o.persistMission(ctx, m)
	o.mirror.UpsertMission(m)

	if len(prior) > 0 {
		o.record(events.TasksRegenerated(missionID, o.actor, len(prior), len(tasks)))
	}
	o.record(events.PlanApproved(missionID, o.actor, len(tasks)))
	o.requestTick()
	return m, tasks, nil
}

// ReopenWithFeedback sends a done mission back into revision. The phase
// axis is untouched: the approved plan and its tasks stay in place.
func (o *Orchestrator) ReopenWithFeedback(ctx context.Context, missionID, feedback string) (*types.Mission, error) {
	m, err := o.mirror.GetMission(missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != types.MissionDone {
		return nil, &GuardError{MissionID: missionID,
			Reason: fmt.Sprintf("cannot reopen mission in status %s", m.Status)}
	}

	m.Status = types.MissionRevision
	m.Feedback = feedback
	m.UpdatedAt = o.now().UTC()

	o.persistMission(ctx, m)
	o.mirror.UpsertMission(m)
	o.record(events.MissionReopened(missionID, o.actor, feedback))
	o.requestTick()
	return m, nil
}

// MoveTask applies a requested task status transition under the blocking
// rules. A start request with incomplete dependencies, or any start while
// the mission gate is closed, is redirected to blocked with a diagnostic.
func (o *Orchestrator) MoveTask(ctx context.Context, taskID string, target types.TaskStatus) (*types.Task, blocking.MoveResult, error) {
	var res blocking.MoveResult
	if !target.IsValid() {
		return nil, res, fmt.Errorf("invalid task status: %s", target)
	}
	task, err := o.mirror.GetTask(taskID)
	if err != nil {
		return nil, res, err
	}

	mission, err := o.mirror.GetMission(task.RootID)
	if err == nil && !mission.GateOpen() &&
		(target == types.TaskStatusInProgress || target == types.TaskStatusTodo) {
		res = blocking.MoveResult{
			Applied:    types.TaskStatusBlocked,
			Note:       blocking.GateDiagnostic,
			Redirected: true,
		}
	} else {
		siblings := o.mirror.TasksForMission(task.RootID)
		res = blocking.Move(task, siblings, target)
	}

	from := task.Status
	now := o.now().UTC()
	task.Status = res.Applied
	task.StatusNote = res.Note
	task.UpdatedAt = now
	if res.Applied == types.TaskStatusInProgress && task.StartedAt == nil {
		task.StartedAt = &now
	}
	if res.Applied == types.TaskStatusDone {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	o.persistTask(ctx, task)
	o.mirror.UpsertTask(task)

	if res.Redirected {
		o.record(events.TaskBlocked(taskID, o.actor, res.Note))
	} else {
		o.record(events.TaskMoved(taskID, o.actor, from, res.Applied))
	}
	o.requestTick()
	return task, res, nil
}

// MoveMission drags a mission into a target bucket. Only execution buckets
// are legal targets, and only once the lifecycle gate is open.
func (o *Orchestrator) MoveMission(ctx context.Context, missionID string, target schedule.Bucket) (*types.Mission, error) {
	m, err := o.mirror.GetMission(missionID)
	if err != nil {
		return nil, err
	}
	if !schedule.MoveAllowed(m, target) {
		return nil, &GuardError{MissionID: missionID,
			Reason: fmt.Sprintf("cannot move mission to %s", target)}
	}
	status, ok := schedule.StatusFor(target)
	if !ok {
		return nil, &GuardError{MissionID: missionID,
			Reason: fmt.Sprintf("bucket %s is not a move target", target)}
	}

	from := m.Status
	m.Status = status
	m.UpdatedAt = o.now().UTC()

	o.persistMission(ctx, m)
	o.mirror.UpsertMission(m)
	o.record(events.MissionMoved(missionID, o.actor, from, status))
	o.requestTick()
	return m, nil
}

// SetTaskDependencies replaces a task's dependency list, rejecting edits
// that would close a cycle among its siblings.
func (o *Orchestrator) SetTaskDependencies(ctx context.Context, taskID string, deps []string) (*types.Task, error) {
	task, err := o.mirror.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	siblings := o.mirror.TasksForMission(task.RootID)
	if err := blocking.SetDependencies(task, siblings, deps); err != nil {
		return nil, err
	}
	task.UpdatedAt = o.now().UTC()

	o.persistTask(ctx, task)
	o.mirror.UpsertTask(task)
	o.requestTick()
	return task, nil
}

func (o *Orchestrator) persistMission(ctx context.Context, m *types.Mission) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveMission(ctx, m); err != nil {
		slog.Warn("mission write-through failed, keeping optimistic state",
			"mission_id", m.ID, "error", err)
	}
}

func (o *Orchestrator) persistTask(ctx context.Context, t *types.Task) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveTask(ctx, t); err != nil {
		slog.Warn("task write-through failed, keeping optimistic state",
			"task_id", t.ID, "error", err)
	}
}

func (o *Orchestrator) deleteTask(ctx context.Context, id string) {
	if o.store == nil {
		return
	}
	if err := o.store.DeleteTask(ctx, id); err != nil {
		slog.Warn("task delete failed, keeping optimistic state",
			"task_id", id, "error", err)
	}
}

func (o *Orchestrator) record(e *events.Event) {
	if err := o.sink.Record(e); err != nil {
		slog.Warn("failed to record activity event", "type", e.Type, "error", err)
	}
}

func (o *Orchestrator) requestTick() {
	if o.ticks != nil {
		o.ticks.Request()
	}
}
