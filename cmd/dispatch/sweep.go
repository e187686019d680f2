package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/schedule"
)

var sweepWatch bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-evaluate due-based mission promotions",
	Long: `Run one promotion sweep: every mission is re-bucketed against the current
clock and queued missions whose scheduled time has arrived move to ready.

With --watch the sweep loop keeps running on the configured interval and
on engine tick requests until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yellow := color.New(color.FgYellow).SprintFunc()
		sweeper := schedule.NewSweeper(schedule.SweeperConfig{
			Source:             mirror,
			Ticks:              ticks,
			Interval:           cfg.Scheduler.SweepInterval,
			MaxSweepsPerSecond: cfg.Scheduler.MaxSweepsPerSecond,
			OnChange: func(c schedule.BucketChange) {
				fmt.Printf("%s %s: %s -> %s\n", yellow("Promoted"), c.MissionID, c.From, c.To)
			},
		})

		// Baseline pass so the next sweep reports transitions, not first
		// observations.
		if err := sweeper.Sweep(cmd.Context()); err != nil {
			return err
		}
		if !sweepWatch {
			fmt.Println("Sweep complete")
			return nil
		}
		return sweeper.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().BoolVar(&sweepWatch, "watch", false, "Keep sweeping on the configured interval")
}
