package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/blocking"
	"github.com/dispatchhq/dispatch/internal/types"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks <mission-id>",
	Short: "List the mission's tasks with their effective statuses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mission, err := mirror.GetMission(args[0])
		if err != nil {
			return err
		}
		tasks := mirror.TasksForMission(args[0])
		if len(tasks) == 0 {
			fmt.Println("No tasks generated yet")
			return nil
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, t := range tasks {
			effective, note := blocking.EffectiveStatus(mission, t, tasks)
			shown := mirror.Displayed(t.ID, effective)
			fmt.Printf("  %s %s  %s\n", statusGlyph(shown), t.ID, t.Title)
			if note != "" {
				fmt.Printf("      %s\n", gray(note))
			}
		}
		return nil
	},
}

func statusGlyph(s types.TaskStatus) string {
	switch s {
	case types.TaskStatusDone:
		return color.GreenString("✓")
	case types.TaskStatusInProgress:
		return color.CyanString("▶")
	case types.TaskStatusBlocked:
		return color.RedString("✗")
	case types.TaskStatusReview:
		return color.YellowString("?")
	case types.TaskStatusFailed:
		return color.RedString("!")
	default:
		return "○"
	}
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
