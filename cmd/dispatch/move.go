package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/schedule"
	"github.com/dispatchhq/dispatch/internal/types"
)

var moveCmd = &cobra.Command{
	Use:   "move <task-id> <status>",
	Short: "Move a task to a new status",
	Long: `Request a task status transition. Starting a task whose dependencies are
not all done, or whose mission plan is not yet approved, redirects the
move to blocked with a diagnostic instead of applying it.

Statuses: todo, in_progress, blocked, review, done, failed`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, res, err := orch.MoveTask(cmd.Context(), args[0], types.TaskStatus(args[1]))
		if err != nil {
			return err
		}
		if res.Redirected {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s %s: %s\n", yellow("Blocked"), task.ID, res.Note)
			return nil
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s to %s\n", green("Moved"), task.ID, task.Status)
		return nil
	},
}

var moveMissionCmd = &cobra.Command{
	Use:   "move-mission <mission-id> <bucket>",
	Short: "Move a mission to an execution bucket",
	Long: `Move a mission into an execution bucket. Only in_progress, pending_review,
done, and failed are legal targets, and only once the plan is approved;
planning, queued, and ready are derived from the gate and the clock.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := orch.MoveMission(cmd.Context(), args[0], schedule.Bucket(args[1]))
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s to %s\n", green("Moved"), m.ID, m.Status)
		return nil
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <task-id> [dep-id...]",
	Short: "Replace a task's dependency list",
	Long: `Replace a task's declared dependencies. Edits that would close a cycle
among the mission's tasks are rejected. With no dep ids the list is
cleared.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := orch.SetTaskDependencies(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s now depends on %d tasks\n", green("Updated"), task.ID, len(task.DependsOn))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(moveMissionCmd)
	rootCmd.AddCommand(depsCmd)
}
