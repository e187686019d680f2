package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var activityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity <mission-or-task-id>",
	Short: "Show the activity trail for a mission or task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := store.GetEvents(cmd.Context(), args[0], activityLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No activity recorded")
			return nil
		}
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, e := range records {
			fmt.Printf("%s  %-20s %s %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Type, e.Message, gray("by "+e.AgentRef))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntVar(&activityLimit, "limit", 20, "Maximum records to show (0 for all)")
}
