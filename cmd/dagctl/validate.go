package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the graph for cycles",
	Long: `Load the edge-list file and run Graph.Validate, reporting a cycle
if one exists.

EXAMPLES:
  dagctl validate -f pipeline.txt`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(graphFile)
	if err != nil {
		return err
	}

	if err := g.Validate(); err != nil {
		return err
	}

	fmt.Println("ok: no cycles")
	return nil
}
