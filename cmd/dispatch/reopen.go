package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var reopenFeedback string

var reopenCmd = &cobra.Command{
	Use:   "reopen <mission-id>",
	Short: "Send a done mission back into revision with feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := orch.ReopenWithFeedback(cmd.Context(), args[0], reopenFeedback)
		if err != nil {
			return err
		}
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("%s %s for revision\n", yellow("Reopened"), m.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reopenCmd)
	reopenCmd.Flags().StringVar(&reopenFeedback, "feedback", "", "Feedback for the revision round")
}
