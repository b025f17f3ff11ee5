// Package dag drives a directed acyclic graph of tasks to completion
// across a bounded worker pool, discovering newly runnable tasks as
// prerequisites complete and aborting on the first task failure.
//
// The graph is mutated in place as tasks complete: a completed node is
// removed, which exposes its dependents to the free frontier. This is
// what makes the executor "dynamic" rather than a pre-computed
// topological scan.
//
// Example:
//
//	g := dag.NewGraph[string]()
//	g.AddEdge("a", "b") // a depends on b
//	g.AddEdge("b", "c")
//
//	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
//	    workers := make([]dag.Worker[string], len(nodes))
//	    for i, n := range nodes {
//	        n := n
//	        workers[i] = dag.FuncWorker(0, func(ctx context.Context) dag.Outcome[string] {
//	            return dag.Outcome[string]{Success: true, Value: n}
//	        })
//	    }
//	    return workers
//	})
//
//	exec := dag.NewExecutor(g, factory)
//	result := exec.Run(context.Background())
package dag
