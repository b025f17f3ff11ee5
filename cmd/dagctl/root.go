package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/dagrunner/pkg/dag"
)

var graphFile string

var rootCmd = &cobra.Command{
	Use:   "dagctl",
	Short: "Build, validate, and run task graphs described in a simple edge-list file",
	Long: `dagctl operates on an edge-list file describing a dag.Graph[string]:

  build
  build test
  test deploy

Each line is either one node name (an isolated node) or two node names
separated by whitespace, "dependent prerequisite" — the left node
depends on the right one. Blank lines and lines starting with # are
ignored.

WORKFLOW:
  dagctl validate -f graph.txt   # check for cycles before running
  dagctl dump -f graph.txt       # inspect nodes, free frontier, edges
  dagctl run -f graph.txt        # run every node as a shell command

EXAMPLES:
  dagctl run -f pipeline.txt
  dagctl validate -f pipeline.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&graphFile, "file", "f", "", "path to the edge-list file (required)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dumpCmd)
}

// loadGraph parses an edge-list file into a dag.Graph[string].
func loadGraph(path string) (*dag.Graph[string], error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g := dag.NewGraph[string]()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			g.AddNode(fields[0])
		case 2:
			g.AddEdge(fields[0], fields[1])
		default:
			return nil, fmt.Errorf("%s:%d: expected one or two fields, got %d", path, lineNo, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return g, nil
}
