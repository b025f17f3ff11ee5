package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the graph's nodes, free frontier, and edges",
	Long: `Load the edge-list file and print a human-readable rendering of its
current state: every node, the nodes with no unmet prerequisites, and
the remaining dependency edges.

EXAMPLES:
  dagctl dump -f pipeline.txt`,
	RunE: runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(graphFile)
	if err != nil {
		return err
	}

	fmt.Print(g.Dump())
	return nil
}
