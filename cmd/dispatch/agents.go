package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agent roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := agents.List()
		if len(list) == 0 {
			fmt.Println("No agents configured; add them to dispatch.yaml")
			return nil
		}
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, a := range list {
			role := ""
			if a.Role != "" {
				role = gray("(" + a.Role + ")")
			}
			fmt.Printf("  %-12s %s %s\n", a.ID, a.Name, role)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
