package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/storage"
	"github.com/dispatchhq/dispatch/internal/types"
)

// SaveMission upserts a mission row and notifies change listeners.
func (s *Store) SaveMission(ctx context.Context, mission *types.Mission) error {
	if err := mission.Validate(); err != nil {
		return fmt.Errorf("invalid mission: %w", err)
	}

	old, err := s.GetMission(ctx, mission.ID)
	if err != nil && !isNotFound(err) {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO missions (
			id, title, phase, phase_status, statement, input_text,
			plan_document, status, scheduled_at, feedback,
			review_enabled, review_agent_id, max_revisions,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			phase = excluded.phase,
			phase_status = excluded.phase_status,
			statement = excluded.statement,
			input_text = excluded.input_text,
			plan_document = excluded.plan_document,
			status = excluded.status,
			scheduled_at = excluded.scheduled_at,
			feedback = excluded.feedback,
			review_enabled = excluded.review_enabled,
			review_agent_id = excluded.review_agent_id,
			max_revisions = excluded.max_revisions,
			updated_at = excluded.updated_at`,
		mission.ID, mission.Title, string(mission.Phase), string(mission.PhaseStatus),
		mission.Statement, mission.InputText, mission.PlanDocument,
		string(mission.Status), mission.ScheduledAt, mission.Feedback,
		mission.Review.Enabled, mission.Review.AgentID, mission.Review.MaxRevisions,
		formatTime(mission.CreatedAt), formatTime(mission.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save mission %s: %w", mission.ID, err)
	}

	change := reconcile.MissionChange{Type: reconcile.ChangeUpdate, New: mission, Old: old}
	if old == nil {
		change.Type = reconcile.ChangeInsert
	}
	s.notifyMission(change)
	return nil
}

// GetMission retrieves a mission by id.
func (s *Store) GetMission(ctx context.Context, id string) (*types.Mission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, phase, phase_status, statement, input_text,
		       plan_document, status, scheduled_at, feedback,
		       review_enabled, review_agent_id, max_revisions,
		       created_at, updated_at
		FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mission %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission %s: %w", id, err)
	}
	return m, nil
}

// ListMissions returns all missions ordered by creation time then id.
func (s *Store) ListMissions(ctx context.Context) ([]*types.Mission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, phase, phase_status, statement, input_text,
		       plan_document, status, scheduled_at, feedback,
		       review_enabled, review_agent_id, max_revisions,
		       created_at, updated_at
		FROM missions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	var missions []*types.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

// DeleteMission removes a mission row and its tasks.
func (s *Store) DeleteMission(ctx context.Context, id string) error {
	old, err := s.GetMission(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE root_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tasks for mission %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM missions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete mission %s: %w", id, err)
	}
	s.notifyMission(reconcile.MissionChange{Type: reconcile.ChangeDelete, Old: old})
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMission(row scannable) (*types.Mission, error) {
	var m types.Mission
	var phase, phaseStatus, status, createdAt, updatedAt string
	err := row.Scan(&m.ID, &m.Title, &phase, &phaseStatus, &m.Statement,
		&m.InputText, &m.PlanDocument, &status, &m.ScheduledAt, &m.Feedback,
		&m.Review.Enabled, &m.Review.AgentID, &m.Review.MaxRevisions,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.Phase = types.Phase(phase)
	m.PhaseStatus = types.PhaseStatus(phaseStatus)
	m.Status = types.MissionStatus(status)
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
