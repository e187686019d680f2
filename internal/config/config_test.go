package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "operator", cfg.Actor)
	assert.Equal(t, ".dispatch/dispatch.db", cfg.Storage.Path)
	assert.Equal(t, 280, cfg.Layout.ColumnWidth)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.SweepInterval)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	data := `
actor: cron
storage:
  path: ":memory:"
scheduler:
  sweep_interval: 5s
agents:
  - id: agent-1
    name: Frontend
    role: builder
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cron", cfg.Actor)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.SweepInterval)
	// Unset fields keep their defaults.
	assert.Equal(t, 120, cfg.Layout.RowHeight)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "agent-1", cfg.Agents[0].ID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout:\n  column_width: -1\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "layout dimensions")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actor: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}
