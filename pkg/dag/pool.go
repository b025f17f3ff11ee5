package dag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/dagrunner/pkg/dagerr"
)

// completion is one Outcome a worker produced. The caller locates the
// affected graph node via outcome.Value, not via any submission-time
// label — a factory may coalesce or fan out, so the pool never assumes
// a 1:1 relationship between a submitted job and a graph node.
type completion[T comparable] struct {
	outcome Outcome[T]
	fault   dagerr.DomainFault
}

// Pool is a fixed-width pool of persistent goroutines. Submit enqueues
// work; Poll performs the bounded-wait read of the next completion;
// Shutdown closes the jobs channel and waits for every in-flight
// worker to drain. It is the pool's job, not the caller's, to survive
// a worker panic: an ordinary panic becomes a synthetic failure
// Outcome, while a panic value implementing dagerr.DomainFault is
// captured and re-raised by Shutdown once the pool itself has stopped
// cleanly.
type Pool[T comparable] struct {
	ctx        context.Context
	jobs       chan job[T]
	completion chan completion[T]
	wg         sync.WaitGroup

	mu    sync.Mutex
	fault dagerr.DomainFault
}

type job[T comparable] struct {
	worker Worker[T]
}

// NewPool starts width persistent worker goroutines. ctx is passed to
// every Worker.Call for the lifetime of the pool, so a worker that
// honors ctx cancellation observes the same cancellation the driver
// loop reacts to.
func NewPool[T comparable](ctx context.Context, width int) *Pool[T] {
	if width < 1 {
		width = 1
	}
	p := &Pool[T]{
		ctx:        ctx,
		jobs:       make(chan job[T]),
		completion: make(chan completion[T], width),
	}
	for i := 0; i < width; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	return p
}

func (p *Pool[T]) loop() {
	defer p.wg.Done()
	for j := range p.jobs {
		c := p.run(j)
		// Deliver the completion without holding this worker slot: the
		// driver may still be submitting a batch larger than the pool,
		// and a slot blocked on a full completion channel would never
		// take the next job.
		go func() { p.completion <- c }()
	}
}

func (p *Pool[T]) run(j job[T]) completion[T] {
	var out Outcome[T]
	var fault dagerr.DomainFault

	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if df, ok := r.(dagerr.DomainFault); ok {
				fault = df
				p.mu.Lock()
				if p.fault == nil {
					p.fault = df
				}
				p.mu.Unlock()
				out = Outcome[T]{Success: false, ErrorMessage: df.Error()}
				return
			}
			out = Outcome[T]{Success: false, ErrorMessage: fmt.Sprint(r)}
		}()
		out = j.worker.Call(p.ctx)
	}()

	return completion[T]{outcome: out, fault: fault}
}

// Submit enqueues a worker. It blocks if no pool goroutine is free to
// accept it; callers dispatching a frontier batch are expected to call
// Submit once per worker the factory returned — not once per input
// task value, since a factory may coalesce several task values into
// one worker or fan one out into several — relying on pool width to
// bound how many run concurrently.
func (p *Pool[T]) Submit(w Worker[T]) {
	p.jobs <- job[T]{worker: w}
}

// Poll is the driver loop's single suspension point: it returns the
// next completion's Outcome, waiting up to timeout. ok is false on
// timeout, in which case outcome is the zero value and the caller
// should retry. The caller maps outcome back onto the graph via
// outcome.Value, per the worker contract.
func (p *Pool[T]) Poll(ctx context.Context, timeout time.Duration) (outcome Outcome[T], ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-p.completion:
		return c.outcome, true
	case <-timer.C:
		return outcome, false
	case <-ctx.Done():
		return outcome, false
	}
}

// Shutdown closes the jobs channel and waits for every in-flight
// worker to finish. If any worker panicked with a dagerr.DomainFault
// during this pool's lifetime, Shutdown panics with it after the drain
// completes, so the fault crosses Executor.Run unwrapped.
func (p *Pool[T]) Shutdown() {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	fault := p.fault
	p.mu.Unlock()
	if fault != nil {
		panic(fault)
	}
}
