// Package sqlite implements the Storage interface on SQLite. Row mutations
// emit change notifications so the reconcile mirror can fold authoritative
// state back in after optimistic local updates.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/schedule"
	"github.com/dispatchhq/dispatch/internal/storage"
	"github.com/dispatchhq/dispatch/internal/types"
)

// Store implements storage.Storage using SQLite.
type Store struct {
	db *sql.DB

	mu               sync.RWMutex
	missionListeners []func(reconcile.MissionChange)
	taskListeners    []func(reconcile.TaskChange)
}

// New creates a new SQLite storage backend. The special path ":memory:"
// opens an in-memory database.
func New(path string) (*Store, error) {
	dsn := "file::memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		// WAL mode for better concurrency
		dsn = "file:" + path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The in-memory database exists per connection; pooling past one
	// connection would silently shard it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnMissionChange registers a listener for mission row changes. Listeners
// run synchronously on the mutating goroutine.
func (s *Store) OnMissionChange(fn func(reconcile.MissionChange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missionListeners = append(s.missionListeners, fn)
}

// OnTaskChange registers a listener for task row changes.
func (s *Store) OnTaskChange(fn func(reconcile.TaskChange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskListeners = append(s.taskListeners, fn)
}

func (s *Store) notifyMission(c reconcile.MissionChange) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.missionListeners {
		fn(c)
	}
}

func (s *Store) notifyTask(c reconcile.TaskChange) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.taskListeners {
		fn(c)
	}
}

// GetConfig retrieves a configuration value by key.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig stores a configuration value.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// GetStatistics aggregates mission and task counts for the board footer.
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{ByBucket: make(map[string]int)}

	missions, err := s.ListMissions(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	stats.TotalMissions = len(missions)
	for _, m := range missions {
		stats.ByBucket[string(schedule.For(m, now))]++
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&stats.TotalTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE status = ?", string(types.TaskStatusBlocked)).
		Scan(&stats.BlockedTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count blocked tasks: %w", err)
	}
	return stats, nil
}

var _ storage.Storage = (*Store)(nil)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
