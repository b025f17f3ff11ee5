package dag

import "context"

// Outcome is what a Worker produces for the node it ran. ErrorMessage
// is populated only when Success is false. Value echoes back the task
// identity the executor should act on: on success, Executor.Run passes
// it to Graph.RemoveNode directly, so a worker that coalesces several
// input nodes or fans one out into several workers reports whichever
// node its own completion actually corresponds to — the executor never
// infers this from how the worker was submitted.
type Outcome[T comparable] struct {
	Success      bool
	ErrorMessage string
	Value        T
}

// Worker runs one unit of work to completion and reports, in
// Outcome.Value, the node that completion stands for. Call is expected to
// honor ctx cancellation where the underlying work supports it; the
// executor treats a context-cancelled run the same as any other
// failure once Call returns.
//
// Priority exists for WorkerFactory implementations that want the pool
// to prefer higher-priority work when more runnable nodes exist than
// pool slots; the core Pool submits in the order it is given and does
// not reorder by priority itself — ordering, if desired, is the
// factory's job (e.g. sort the returned []Worker by Priority descending
// before returning it).
type Worker[T comparable] interface {
	Call(ctx context.Context) Outcome[T]
	Priority() int
}

// WorkerFactory turns a batch of newly-free nodes into Workers. It may
// return fewer or more Workers than it was given nodes — coalescing
// several nodes into one Worker, or fanning one node out into several —
// since the executor tracks in-flight count by the Workers actually
// returned, not by len(nodes). Called once per frontier-submission
// cycle with exactly the nodes the executor intends to run next.
type WorkerFactory[T comparable] interface {
	CreateWorkers(nodes []T) []Worker[T]
}

// WorkerFactoryFunc adapts a plain function to WorkerFactory.
type WorkerFactoryFunc[T comparable] func(nodes []T) []Worker[T]

// CreateWorkers implements WorkerFactory.
func (f WorkerFactoryFunc[T]) CreateWorkers(nodes []T) []Worker[T] {
	return f(nodes)
}

// funcWorker adapts a plain function and a fixed priority to Worker.
type funcWorker[T comparable] struct {
	priority int
	call     func(ctx context.Context) Outcome[T]
}

// Call implements Worker.
func (w *funcWorker[T]) Call(ctx context.Context) Outcome[T] {
	return w.call(ctx)
}

// Priority implements Worker.
func (w *funcWorker[T]) Priority() int {
	return w.priority
}

// FuncWorker builds a Worker out of a plain function and a priority,
// for the common case of a factory that does not need a distinct type
// per node.
func FuncWorker[T comparable](priority int, call func(ctx context.Context) Outcome[T]) Worker[T] {
	return &funcWorker[T]{priority: priority, call: call}
}
