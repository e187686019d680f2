package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dispatchhq/dispatch/internal/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <mission-id>",
	Short: "Show the mission's task dependency graph",
	Long: `Render the mission's task graph as topological levels with the critical
path highlighted. Coordinates use the configured layout geometry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := mirror.GetMission(args[0]); err != nil {
			return err
		}
		tasks := mirror.TasksForMission(args[0])
		layout := graph.Layout{
			ColumnWidth: cfg.Layout.ColumnWidth,
			RowHeight:   cfg.Layout.RowHeight,
			Padding:     cfg.Layout.Padding,
		}
		g := graph.Build(tasks, layout)

		titles := make(map[string]string, len(g.Nodes))
		byLevel := make(map[int][]string)
		maxLevel := 0
		for _, n := range g.Nodes {
			titles[n.Task.ID] = n.Task.Title
			byLevel[n.Level] = append(byLevel[n.Level], n.Task.ID)
			if n.Level > maxLevel {
				maxLevel = n.Level
			}
		}

		red := color.New(color.FgRed, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		onPath := make(map[string]bool, len(g.CriticalPath))
		for _, id := range g.CriticalPath {
			onPath[id] = true
		}

		for lv := 0; lv <= maxLevel; lv++ {
			fmt.Printf("%s\n", gray(fmt.Sprintf("level %d", lv)))
			for _, id := range byLevel[lv] {
				title := titles[id]
				if onPath[id] {
					fmt.Printf("  %s %s\n", red("●"), red(title))
				} else {
					fmt.Printf("  ● %s\n", title)
				}
			}
		}

		if len(g.CriticalPath) > 0 {
			names := make([]string, len(g.CriticalPath))
			for i, id := range g.CriticalPath {
				names[i] = titles[id]
			}
			fmt.Printf("\ncritical path (%d edges): %s\n",
				g.CriticalLength, strings.Join(names, " -> "))
		}
		fmt.Printf("%s\n", gray(fmt.Sprintf("canvas %dx%d", g.Width, g.Height)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
