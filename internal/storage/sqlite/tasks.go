package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/storage"
	"github.com/dispatchhq/dispatch/internal/types"
)

// SaveTask upserts a task row and notifies change listeners.
func (s *Store) SaveTask(ctx context.Context, task *types.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	old, err := s.GetTask(ctx, task.ID)
	if err != nil && !isNotFound(err) {
		return err
	}

	dependsOn, err := json.Marshal(task.DependsOn)
	if err != nil {
		return fmt.Errorf("failed to marshal depends_on: %w", err)
	}
	domains, err := json.Marshal(task.Domains)
	if err != nil {
		return fmt.Errorf("failed to marshal domains: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, instructions, status, status_note, priority, agent_id,
			depends_on, root_id, parent_id, round, domains,
			review_enabled, review_agent_id, max_revisions,
			created_at, updated_at, started_at, completed_at, due_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			instructions = excluded.instructions,
			status = excluded.status,
			status_note = excluded.status_note,
			priority = excluded.priority,
			agent_id = excluded.agent_id,
			depends_on = excluded.depends_on,
			root_id = excluded.root_id,
			parent_id = excluded.parent_id,
			round = excluded.round,
			domains = excluded.domains,
			review_enabled = excluded.review_enabled,
			review_agent_id = excluded.review_agent_id,
			max_revisions = excluded.max_revisions,
			updated_at = excluded.updated_at,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			due_at = excluded.due_at`,
		task.ID, task.Title, task.Instructions, string(task.Status), task.StatusNote,
		task.Priority, task.AgentID, string(dependsOn), task.RootID, task.ParentID,
		task.Round, string(domains),
		task.Review.Enabled, task.Review.AgentID, task.Review.MaxRevisions,
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		formatNullableTime(task.StartedAt), formatNullableTime(task.CompletedAt),
		task.DueAt)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}

	change := reconcile.TaskChange{Type: reconcile.ChangeUpdate, New: task, Old: old}
	if old == nil {
		change.Type = reconcile.ChangeInsert
	}
	s.notifyTask(change)
	return nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, taskSelect+" WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return t, nil
}

// ListTasks returns the mission's tasks in creation order. An empty
// missionID lists every task.
func (s *Store) ListTasks(ctx context.Context, missionID string) ([]*types.Task, error) {
	query := taskSelect + " ORDER BY created_at, id"
	args := []any{}
	if missionID != "" {
		query = taskSelect + " WHERE root_id = ? ORDER BY created_at, id"
		args = append(args, missionID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task row.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	old, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	s.notifyTask(reconcile.TaskChange{Type: reconcile.ChangeDelete, Old: old})
	return nil
}

const taskSelect = `
	SELECT id, title, instructions, status, status_note, priority, agent_id,
	       depends_on, root_id, parent_id, round, domains,
	       review_enabled, review_agent_id, max_revisions,
	       created_at, updated_at, started_at, completed_at, due_at
	FROM tasks`

func scanTask(row scannable) (*types.Task, error) {
	var t types.Task
	var status, dependsOn, domains, createdAt, updatedAt string
	var startedAt, completedAt sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Instructions, &status, &t.StatusNote,
		&t.Priority, &t.AgentID, &dependsOn, &t.RootID, &t.ParentID,
		&t.Round, &domains,
		&t.Review.Enabled, &t.Review.AgentID, &t.Review.MaxRevisions,
		&createdAt, &updatedAt, &startedAt, &completedAt, &t.DueAt)
	if err != nil {
		return nil, err
	}
	t.Status = types.TaskStatus(status)
	if err := json.Unmarshal([]byte(dependsOn), &t.DependsOn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal depends_on: %w", err)
	}
	if err := json.Unmarshal([]byte(domains), &t.Domains); err != nil {
		return nil, fmt.Errorf("failed to unmarshal domains: %w", err)
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.StartedAt = parseNullableTime(startedAt)
	t.CompletedAt = parseNullableTime(completedAt)
	return &t, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
