// Package batch runs many independent graphs through pkg/dag
// concurrently, bounded to a fixed number of graphs in flight at once,
// the way internal/service/dispatcher.go once bounded runner dispatch.
package batch

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/dagrunner/pkg/dag"
)

// Job is one graph to run, together with the factory that builds its
// workers.
type Job[T comparable] struct {
	Name    string
	Graph   *dag.Graph[T]
	Factory dag.WorkerFactory[T]
	Options []dag.Option[T]
}

// Outcome pairs a Job's name with the Result its Executor.Run produced.
// For a job skipped because ctx was already cancelled, Err holds
// ctx.Err() and Result is the zero value.
type Outcome[T comparable] struct {
	Name   string
	Result dag.Result
	Err    error
}

// Runner runs a batch of Jobs with at most Concurrency graphs executing
// at once. A zero Concurrency means unbounded.
type Runner[T comparable] struct {
	Concurrency int
	Logger      *log.Logger
}

// Run executes every job, returning one Outcome per job in the order
// jobs was given. If ctx is cancelled, jobs not yet started are
// skipped and jobs already running are cancelled via their own
// Executor.Run — the same "ctx.Done() is a failed completion" rule
// pkg/dag applies everywhere else.
func (r *Runner[T]) Run(ctx context.Context, jobs []Job[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome[T]{Name: job.Name, Err: err}
				return nil
			}
			start := time.Now()
			exec := dag.NewExecutor(job.Graph, job.Factory, job.Options...)
			result := exec.Run(ctx)
			outcomes[i] = Outcome[T]{Name: job.Name, Result: result}
			r.logf("batch: job %q finished in %s (success=%t)", job.Name, time.Since(start), result.Success)
			return nil
		})
	}

	// errgroup.Group.Wait's error is always nil here: each job reports
	// its own failure through Outcome.Result rather than by returning
	// an error, so a failing graph never aborts its siblings.
	_ = g.Wait()

	return outcomes
}

func (r *Runner[T]) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
