// Package e2e exercises pkg/dag together with the ambient stack —
// rundb, observability, and internal/batch — the way a real caller
// would wire them, rather than pkg/dag in isolation.
package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/dagrunner/internal/batch"
	"github.com/example/dagrunner/internal/observability"
	"github.com/example/dagrunner/internal/rundb"
	"github.com/example/dagrunner/pkg/dag"
)

func TestExecutorWithMetricsAndHistory(t *testing.T) {
	g := dag.NewGraph[string]()
	g.AddEdge("deploy", "build")
	g.AddEdge("build", "fetch-deps")

	var ran []string
	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
		workers := make([]dag.Worker[string], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[string](0, func(ctx context.Context) dag.Outcome[string] {
				ran = append(ran, n)
				return dag.Outcome[string]{Success: true, Value: n}
			})
		}
		return workers
	})

	metrics := observability.NewMetrics()
	exec := dag.NewExecutor(g, factory, dag.WithMetrics[string](metrics))

	ctx := context.Background()
	db, err := rundb.Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("rundb.Open: %v", err)
	}
	defer db.Close()

	start := time.Now().UTC()
	result := exec.Run(ctx)
	if err := db.RecordStart(ctx, result.RunID, start); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := db.RecordFinish(ctx, result.RunID, time.Now().UTC(), result.Success, result.ErrorMessage); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %q", result.ErrorMessage)
	}
	if len(ran) != 3 {
		t.Fatalf("ran %v, want 3 nodes", ran)
	}

	snap := metrics.Snapshot()
	if snap.NodesCompleted != 3 {
		t.Errorf("NodesCompleted = %d, want 3", snap.NodesCompleted)
	}

	row, err := db.Get(ctx, result.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !row.Success.Bool {
		t.Errorf("rundb row recorded failure for a successful run")
	}
}

func TestBatchRunnerAcrossIndependentGraphs(t *testing.T) {
	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
		workers := make([]dag.Worker[string], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[string](0, func(ctx context.Context) dag.Outcome[string] {
				return dag.Outcome[string]{Success: true, Value: n}
			})
		}
		return workers
	})

	jobs := make([]batch.Job[string], 0, 3)
	for _, name := range []string{"service-a", "service-b", "service-c"} {
		g := dag.NewGraph[string]()
		g.AddEdge("deploy", "build")
		jobs = append(jobs, batch.Job[string]{Name: name, Graph: g, Factory: factory})
	}

	runner := &batch.Runner[string]{Concurrency: 2}
	outcomes := runner.Run(context.Background(), jobs)

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Result.Success {
			t.Errorf("job %q failed: %s", o.Name, o.Result.ErrorMessage)
		}
	}
}

func TestExecutorFailurePropagatesThroughHistory(t *testing.T) {
	g := dag.NewGraph[string]()
	g.AddEdge("deploy", "build")

	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
		workers := make([]dag.Worker[string], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[string](0, func(ctx context.Context) dag.Outcome[string] {
				if n == "build" {
					return dag.Outcome[string]{Success: false, ErrorMessage: "compile error", Value: n}
				}
				return dag.Outcome[string]{Success: true, Value: n}
			})
		}
		return workers
	})

	exec := dag.NewExecutor(g, factory)
	result := exec.Run(context.Background())

	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.ErrorMessage != "compile error" {
		t.Errorf("ErrorMessage = %q, want %q", result.ErrorMessage, "compile error")
	}
}
