// Package storage defines the persistence interface for the dispatch
// engine. The engine mutates its in-memory mirror optimistically and writes
// through this interface; backends emit per-row change notifications so the
// mirror can fold authoritative state back in.
package storage

import (
	"context"
	"errors"

	"github.com/dispatchhq/dispatch/internal/events"
	"github.com/dispatchhq/dispatch/internal/types"
)

// ErrNotFound is returned by point lookups for absent ids.
var ErrNotFound = errors.New("not found")

// Storage defines the interface for mission storage backends.
type Storage interface {
	// Missions
	SaveMission(ctx context.Context, mission *types.Mission) error
	GetMission(ctx context.Context, id string) (*types.Mission, error)
	ListMissions(ctx context.Context) ([]*types.Mission, error)
	DeleteMission(ctx context.Context, id string) error

	// Tasks
	SaveTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, missionID string) ([]*types.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Activity events (append-only audit trail)
	RecordEvent(ctx context.Context, event *events.Event) error
	GetEvents(ctx context.Context, subjectID string, limit int) ([]*events.Event, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	Close() error
}
