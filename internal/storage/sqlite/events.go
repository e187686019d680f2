package sqlite

import (
	"context"
	"fmt"

	"github.com/dispatchhq/dispatch/internal/events"
)

// RecordEvent appends one activity record. Events are immutable once
// written.
func (s *Store) RecordEvent(ctx context.Context, event *events.Event) error {
	if !event.Type.IsValid() {
		return fmt.Errorf("invalid event type: %s", event.Type)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, event_type, message, agent_ref, subject_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Type), event.Message, event.AgentRef,
		event.SubjectID, formatTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetEvents returns the newest activity records for a subject, most recent
// first. A zero limit returns everything.
func (s *Store) GetEvents(ctx context.Context, subjectID string, limit int) ([]*events.Event, error) {
	query := `
		SELECT id, event_type, message, agent_ref, subject_id, created_at
		FROM events WHERE subject_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{subjectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*events.Event
	for rows.Next() {
		var e events.Event
		var eventType, createdAt string
		if err := rows.Scan(&e.ID, &eventType, &e.Message, &e.AgentRef,
			&e.SubjectID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = events.Type(eventType)
		e.CreatedAt = parseTime(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Record implements events.Sink so transition emitters can write straight
// to the store.
func (s *Store) Record(event *events.Event) error {
	return s.RecordEvent(context.Background(), event)
}

var _ events.Sink = (*Store)(nil)
