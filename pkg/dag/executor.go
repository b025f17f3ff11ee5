package dag

import (
	"context"
	"fmt"
	"time"

	"github.com/example/dagrunner/pkg/dagerr"
	"github.com/example/dagrunner/pkg/id"
)

// Result is the aggregate outcome of a Run: success or the first
// recorded failure, whichever happened.
type Result struct {
	RunID        string
	Success      bool
	ErrorMessage string
}

// Executor drives a Graph to completion over a bounded worker pool,
// submitting newly-free nodes as they appear and aborting at the first
// task failure.
type Executor[T comparable] struct {
	graph   *Graph[T]
	factory WorkerFactory[T]
	cfg     config
}

// NewExecutor builds an Executor for graph, using factory to turn each
// newly-free batch of nodes into Workers.
func NewExecutor[T comparable](graph *Graph[T], factory WorkerFactory[T], opts ...Option[T]) *Executor[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Executor[T]{graph: graph, factory: factory, cfg: cfg}
}

// Run executes the graph: it repeatedly submits the current free
// frontier, waits for one completion, mutates the graph, and
// recomputes the frontier, until every node has run or a failure is
// recorded. The first failure — a task outcome, or ctx being cancelled
// — wins; later failures are logged, and later completions are
// otherwise discarded rather than used to keep mutating the graph. The
// pool is shut down on every exit path.
//
// If a worker panicked with a dagerr.DomainFault, Run re-panics with it
// unchanged once the pool has drained, instead of returning a Result.
func (e *Executor[T]) Run(ctx context.Context) Result {
	runID := id.Generate()
	result := Result{RunID: runID, Success: true}

	pool := NewPool[T](ctx, e.cfg.poolWidth)
	defer func() {
		e.logf("run %s: shutting down pool", runID)
		pool.Shutdown()
	}()

	running := 0
	nodesRun := make(map[T]struct{})
	failed := false

	for {
		if !failed {
			newFree := e.submittableFrontier(nodesRun)
			if len(newFree) > 0 {
				for _, n := range newFree {
					nodesRun[n] = struct{}{}
				}
				start := time.Now()
				// The factory may coalesce several task values into one
				// worker or fan one out into several; in-flight count
				// and submission track the workers it actually returned,
				// not the input batch size.
				workers := e.factory.CreateWorkers(newFree)
				batch := id.GenerateShort()
				e.logf("run %s: dispatch %s: %d nodes -> %d workers", runID, batch, len(newFree), len(workers))
				for _, w := range workers {
					pool.Submit(w)
					running++
					e.metricNodesSubmitted()
				}
				e.metricDispatchCycle(time.Since(start))
			}
		}

		if running == 0 {
			break
		}

		if ctx.Err() != nil && !failed {
			failed = true
			result.Success = false
			result.ErrorMessage = fmt.Errorf("%w: %v", dagerr.ErrAborted, ctx.Err()).Error()
			e.logf("run %s: aborted: %s", runID, result.ErrorMessage)
		}

		waitStart := time.Now()
		outcome, ok := pool.Poll(ctx, e.cfg.pollTimeout)
		e.metricCompletionWait(time.Since(waitStart))
		e.metricPoolUtilization(running, e.cfg.poolWidth)
		if !ok {
			continue
		}
		running--

		if !outcome.Success {
			e.metricNodesFailed()
			if !failed {
				failed = true
				result.Success = false
				result.ErrorMessage = outcome.ErrorMessage
				e.logf("run %s: node %v failed: %s", runID, outcome.Value, outcome.ErrorMessage)
			} else {
				e.logf("run %s: node %v failed during drain (ignored): %s", runID, outcome.Value, outcome.ErrorMessage)
			}
			continue
		}

		e.metricNodesCompleted()
		if !failed {
			// Completion-to-graph mapping is performed by the worker's
			// own reported Value, not by the task value it happened to
			// be submitted under, so a coalescing or fan-out worker can
			// report a node different from whatever triggered it.
			e.graph.RemoveNode(outcome.Value)
		}
	}

	return result
}

// submittableFrontier returns the graph's current free nodes that have
// not already been submitted this Run.
func (e *Executor[T]) submittableFrontier(nodesRun map[T]struct{}) []T {
	free := e.graph.FreeNodes()
	fresh := make([]T, 0, len(free))
	for _, n := range free {
		if _, ok := nodesRun[n]; !ok {
			fresh = append(fresh, n)
		}
	}
	return fresh
}

func (e *Executor[T]) logf(format string, args ...any) {
	if e.cfg.logger != nil {
		e.cfg.logger.Printf(format, args...)
	}
}

func (e *Executor[T]) metricDispatchCycle(d time.Duration) {
	if e.cfg.metrics != nil {
		e.cfg.metrics.DispatchCycleDuration().Observe(d)
	}
}

func (e *Executor[T]) metricCompletionWait(d time.Duration) {
	if e.cfg.metrics != nil {
		e.cfg.metrics.CompletionWaitDuration().Observe(d)
	}
}

func (e *Executor[T]) metricPoolUtilization(running, width int) {
	if e.cfg.metrics != nil && width > 0 {
		e.cfg.metrics.PoolUtilization().Set(float64(running) / float64(width))
	}
}

func (e *Executor[T]) metricNodesSubmitted() {
	if e.cfg.metrics != nil {
		e.cfg.metrics.NodesSubmitted().Inc()
	}
}

func (e *Executor[T]) metricNodesCompleted() {
	if e.cfg.metrics != nil {
		e.cfg.metrics.NodesCompleted().Inc()
	}
}

func (e *Executor[T]) metricNodesFailed() {
	if e.cfg.metrics != nil {
		e.cfg.metrics.NodesFailed().Inc()
	}
}
