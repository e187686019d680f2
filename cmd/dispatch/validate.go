package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/plan"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan-file>",
	Short: "Validate a plan document without touching any mission",
	Long: `Parse and validate a plan document against the configured agent roster.
Prints every problem at once; a valid plan prints the compiled task
blueprints instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan file: %w", err)
		}

		result := plan.Validate(string(data), agents)
		if !result.Valid {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s: %d problems\n", red("Invalid"), len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s %s\n", red("✗"), e)
			}
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s: %d tasks\n", green("Valid"), len(result.Blueprints))
		for _, bp := range result.Blueprints {
			fmt.Printf("  %s  %s %s\n", bp.Key, bp.Title, gray("agent="+bp.AgentID))
			if len(bp.DependsOn) > 0 {
				fmt.Printf("      %s\n", gray(fmt.Sprintf("depends on %v", bp.DependsOn)))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
