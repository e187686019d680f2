package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/lifecycle"
	"github.com/dispatchhq/dispatch/internal/plan"
)

var (
	approveStatementText     string
	approvePlanFile          string
	approvePlanFallbackAgent string
)

var approveStatementCmd = &cobra.Command{
	Use:   "approve-statement <mission-id>",
	Short: "Approve a mission statement and advance to the plan phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := orch.ApproveStatement(cmd.Context(), args[0], approveStatementText)
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s statement for %s; now in the %s phase\n", green("Approved"), m.ID, m.Phase)
		return nil
	},
}

var approvePlanCmd = &cobra.Command{
	Use:   "approve-plan <mission-id>",
	Short: "Validate the plan document and materialize its tasks",
	Long: `Validate the mission's plan document and, when it is clean, generate one
task per plan entry with dependencies rewired to real task ids. Any
validation error rejects the whole plan; all errors print at once.

The document is read from --file when given, otherwise from the document
stored on the mission. With --fallback-agent and no authored document, a
degenerate single-task plan is synthesized from the mission statement.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document := ""
		if approvePlanFile != "" {
			data, err := os.ReadFile(approvePlanFile)
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			document = string(data)
		} else if approvePlanFallbackAgent != "" {
			m, err := mirror.GetMission(args[0])
			if err != nil {
				return err
			}
			if m.PlanDocument == "" {
				document = plan.FallbackDocument(m, approvePlanFallbackAgent)
			}
		}

		m, tasks, err := orch.ApprovePlan(cmd.Context(), args[0], document)
		var verr *lifecycle.ValidationError
		if errors.As(err, &verr) {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s plan for %s:\n", red("Rejected"), verr.MissionID)
			for _, e := range verr.Errors {
				fmt.Printf("  %s %s\n", red("✗"), e)
			}
			os.Exit(1)
		}
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s plan for %s: %d tasks created\n", green("Approved"), m.ID, len(tasks))
		for _, t := range tasks {
			fmt.Printf("  %s  %s\n", t.ID, t.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveStatementCmd)
	rootCmd.AddCommand(approvePlanCmd)
	approveStatementCmd.Flags().StringVar(&approveStatementText, "statement", "", "Explicit statement text (falls back to stored statement, then input text)")
	approvePlanCmd.Flags().StringVar(&approvePlanFile, "file", "", "Plan document file (JSON or YAML)")
	approvePlanCmd.Flags().StringVar(&approvePlanFallbackAgent, "fallback-agent", "", "Synthesize a single-task plan for this agent when no document exists")
}
