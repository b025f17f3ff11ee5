package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/dagrunner/internal/observability"
	"github.com/example/dagrunner/internal/rundb"
	"github.com/example/dagrunner/pkg/dag"
)

var (
	poolWidth   int
	pollTimeout time.Duration
	showMetrics bool
	historyDB   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every node in the graph as a shell command",
	Long: `Load the edge-list file and run its dag.Executor: each node's name
is executed as a shell command (via "sh -c"), a bounded number at a
time, stopping at the first command that exits non-zero.

EXAMPLES:
  dagctl run -f pipeline.txt
  dagctl run -f pipeline.txt --pool-width 8 --metrics
  dagctl run -f pipeline.txt --history runs.db`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&poolWidth, "pool-width", 5, "number of commands to run concurrently")
	runCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 5*time.Second, "completion poll timeout")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print metrics after the run")
	runCmd.Flags().StringVar(&historyDB, "history", "", "path to a SQLite run-history database (disabled if empty)")
}

func runRun(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(graphFile)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	metrics := observability.NewMetrics()

	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
		workers := make([]dag.Worker[string], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[string](0, func(ctx context.Context) dag.Outcome[string] {
				c := exec.CommandContext(ctx, "sh", "-c", n)
				c.Stdout = os.Stdout
				c.Stderr = os.Stderr
				if err := c.Run(); err != nil {
					return dag.Outcome[string]{Success: false, ErrorMessage: err.Error(), Value: n}
				}
				return dag.Outcome[string]{Success: true, Value: n}
			})
		}
		return workers
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var history *rundb.DB
	if historyDB != "" {
		history, err = rundb.Open(ctx, historyDB)
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer history.Close()
	}

	executor := dag.NewExecutor(
		g,
		factory,
		dag.WithPoolWidth[string](poolWidth),
		dag.WithPollTimeout[string](pollTimeout),
		dag.WithMetrics[string](metrics),
		dag.WithLogger[string](logger),
	)

	startedAt := time.Now().UTC()
	result := executor.Run(ctx)

	if history != nil {
		if err := history.RecordStart(ctx, result.RunID, startedAt); err != nil {
			logger.Printf("history: record start: %v", err)
		}
		if err := history.RecordFinish(ctx, result.RunID, time.Now().UTC(), result.Success, result.ErrorMessage); err != nil {
			logger.Printf("history: record finish: %v", err)
		}
	}

	if showMetrics {
		snap := metrics.Snapshot()
		fmt.Printf("nodes submitted=%d completed=%d failed=%d\n",
			snap.NodesSubmitted, snap.NodesCompleted, snap.NodesFailed)
	}

	if !result.Success {
		return fmt.Errorf("run %s failed: %s", result.RunID, result.ErrorMessage)
	}
	fmt.Printf("run %s: ok\n", result.RunID)
	return nil
}
