package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/schedule"
	"github.com/dispatchhq/dispatch/internal/types"
)

var boardOrder = []schedule.Bucket{
	schedule.BucketPlanning,
	schedule.BucketQueued,
	schedule.BucketReady,
	schedule.BucketInProgress,
	schedule.BucketPendingReview,
	schedule.BucketDone,
	schedule.BucketFailed,
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show every mission grouped by scheduler bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		missions, err := mirror.ListMissions(cmd.Context())
		if err != nil {
			return err
		}
		now := time.Now()

		grouped := make(map[schedule.Bucket][]*types.Mission)
		for _, m := range missions {
			b := schedule.For(m, now)
			grouped[b] = append(grouped[b], m)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, bucket := range boardOrder {
			rows := grouped[bucket]
			if len(rows) == 0 {
				continue
			}
			fmt.Printf("%s\n", yellow(string(bucket)))
			for _, m := range rows {
				detail := string(m.Status)
				if bucket == schedule.BucketQueued && m.ScheduledAt != "" {
					detail = "scheduled " + m.ScheduledAt
				}
				fmt.Printf("  %s  %s %s\n", m.ID, m.Title, gray("("+detail+")"))
			}
		}

		stats, err := store.GetStatistics(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", gray(fmt.Sprintf("%d missions, %d tasks, %d blocked",
			stats.TotalMissions, stats.TotalTasks, stats.BlockedTasks)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
