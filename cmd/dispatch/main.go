// Command dispatch is the operator CLI for the mission orchestration
// engine: create missions, approve statements and plans, inspect the board
// and the dependency graph, and move work between states.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/config"
	"github.com/dispatchhq/dispatch/internal/lifecycle"
	"github.com/dispatchhq/dispatch/internal/reconcile"
	"github.com/dispatchhq/dispatch/internal/roster"
	"github.com/dispatchhq/dispatch/internal/schedule"
	"github.com/dispatchhq/dispatch/internal/storage/sqlite"
)

var (
	cfgPath string
	dbPath  string

	cfg    *config.Config
	store  *sqlite.Store
	mirror *reconcile.Mirror
	agents *roster.Roster
	ticks  *schedule.TickRequester
	orch   *lifecycle.Orchestrator
)

var rootCmd = &cobra.Command{
	Use:           "dispatch",
	Short:         "Mission and task orchestration engine",
	Long:          `Dispatch tracks missions through a statement/plan/tasks approval lifecycle, derives task blocking from declared dependencies, and projects missions onto scheduler buckets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

func setup(ctx context.Context) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	store, err = sqlite.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	mirror = reconcile.NewMirror()
	store.OnMissionChange(mirror.ApplyMissionChange)
	store.OnTaskChange(mirror.ApplyTaskChange)

	// Warm the mirror from the authoritative rows.
	missions, err := store.ListMissions(ctx)
	if err != nil {
		return err
	}
	for _, m := range missions {
		mirror.UpsertMission(m)
	}
	tasks, err := store.ListTasks(ctx, "")
	if err != nil {
		return err
	}
	for _, t := range tasks {
		mirror.UpsertTask(t)
	}

	agents = roster.New(cfg.Agents...)
	ticks = schedule.NewTickRequester()
	orch = lifecycle.New(lifecycle.Config{
		Mirror: mirror,
		Agents: agents,
		Store:  store,
		Sink:   store,
		Ticks:  ticks,
		Actor:  cfg.Actor,
	})
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "dispatch.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Override the database path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
