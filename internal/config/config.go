// Package config loads engine configuration from a YAML file with sane
// defaults for every field.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dispatchhq/dispatch/internal/roster"
)

// Config is the full engine configuration.
type Config struct {
	// Actor is the name stamped on activity records for CLI-driven
	// mutations.
	Actor string `yaml:"actor"`

	Storage   StorageConfig   `yaml:"storage"`
	Layout    LayoutConfig    `yaml:"layout"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Agents is the fixed roster plan documents validate against.
	Agents []roster.Agent `yaml:"agents"`
}

// StorageConfig holds backing-store settings.
type StorageConfig struct {
	// Path is the SQLite database file path. The special value ":memory:"
	// creates an in-memory database, useful for tests.
	Path string `yaml:"path"`
}

// LayoutConfig holds the graph renderer geometry.
type LayoutConfig struct {
	ColumnWidth int `yaml:"column_width"`
	RowHeight   int `yaml:"row_height"`
	Padding     int `yaml:"padding"`
}

// SchedulerConfig holds sweep timing knobs.
type SchedulerConfig struct {
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	MaxSweepsPerSecond float64       `yaml:"max_sweeps_per_second"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Actor: "operator",
		Storage: StorageConfig{
			Path: ".dispatch/dispatch.db",
		},
		Layout: LayoutConfig{
			ColumnWidth: 280,
			RowHeight:   120,
			Padding:     40,
		},
		Scheduler: SchedulerConfig{
			SweepInterval:      30 * time.Second,
			MaxSweepsPerSecond: 1,
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults. A missing
// file is not an error: the defaults apply unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Actor == "" {
		return fmt.Errorf("actor must not be empty")
	}
	if c.Layout.ColumnWidth <= 0 || c.Layout.RowHeight <= 0 {
		return fmt.Errorf("layout dimensions must be positive")
	}
	if c.Layout.Padding < 0 {
		return fmt.Errorf("layout padding must not be negative")
	}
	if c.Scheduler.MaxSweepsPerSecond <= 0 {
		return fmt.Errorf("max_sweeps_per_second must be positive")
	}
	return nil
}
