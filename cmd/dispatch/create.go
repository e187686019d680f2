package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	createInput string
	createAt    string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new mission in the statement phase",
	Long: `Create a new mission. It starts in the statement phase awaiting approval;
use "dispatch approve-statement" to advance it.

Example:
  dispatch create "Ship onboarding" --input "Users should sign up end to end"
  dispatch create "Quarterly cleanup" --at 2026-10-01T09:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := orch.CreateMission(cmd.Context(), args[0], createInput, createAt)
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s mission %s (%s)\n", green("Created"), m.ID, m.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createInput, "input", "", "Free-text description the statement can fall back to")
	createCmd.Flags().StringVar(&createAt, "at", "", "Scheduled start time (RFC 3339)")
}
