package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/dagrunner/pkg/dag"
)

func succeedingFactory() dag.WorkerFactory[int] {
	return dag.WorkerFactoryFunc[int](func(nodes []int) []dag.Worker[int] {
		workers := make([]dag.Worker[int], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[int](0, func(ctx context.Context) dag.Outcome[int] {
				time.Sleep(5 * time.Millisecond)
				return dag.Outcome[int]{Success: true, Value: n}
			})
		}
		return workers
	})
}

func TestRunnerRunsAllJobs(t *testing.T) {
	jobs := make([]Job[int], 0, 3)
	for i := 0; i < 3; i++ {
		g := dag.NewGraph[int]()
		g.AddNode(i)
		jobs = append(jobs, Job[int]{Name: "job", Graph: g, Factory: succeedingFactory()})
	}

	r := &Runner[int]{Concurrency: 2}
	outcomes := r.Run(context.Background(), jobs)

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Result.Success {
			t.Errorf("job %q failed: %s", o.Name, o.Result.ErrorMessage)
		}
	}
}

func TestRunnerRespectsConcurrencyLimit(t *testing.T) {
	var running, maxRunning int32

	boundedFactory := dag.WorkerFactoryFunc[int](func(nodes []int) []dag.Worker[int] {
		workers := make([]dag.Worker[int], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[int](0, func(ctx context.Context) dag.Outcome[int] {
				cur := atomic.AddInt32(&running, 1)
				for {
					max := atomic.LoadInt32(&maxRunning)
					if cur <= max || atomic.CompareAndSwapInt32(&maxRunning, max, cur) {
						break
					}
				}
				time.Sleep(15 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return dag.Outcome[int]{Success: true, Value: n}
			})
		}
		return workers
	})

	jobs := make([]Job[int], 0, 6)
	for i := 0; i < 6; i++ {
		g := dag.NewGraph[int]()
		g.AddNode(i)
		jobs = append(jobs, Job[int]{Name: "job", Graph: g, Factory: boundedFactory})
	}

	r := &Runner[int]{Concurrency: 2}
	r.Run(context.Background(), jobs)

	if got := atomic.LoadInt32(&maxRunning); got > 2 {
		t.Errorf("observed %d concurrent jobs, concurrency limit was 2", got)
	}
}
