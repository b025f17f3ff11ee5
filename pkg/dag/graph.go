package dag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/dagrunner/pkg/dagerr"
)

// Graph holds a set of task nodes and two reciprocal edge relations:
// dependedUpon (outgoing prerequisite edges) and dependingOn (incoming
// dependent edges). Two nodes carry the same identity iff their
// underlying T values compare equal, which is the entirety of what the
// spec calls "node identity" — Go's comparable constraint makes a
// wrapper type unnecessary.
//
// All mutating operations and the free-frontier read are serialized by
// mu, satisfying the "implementations may enforce this internally"
// option for graph thread-safety. The executor is still documented as
// the sole mutator during a Run, but the lock makes external misuse
// (e.g. a caller inspecting the graph from another goroutine while a
// Run is in flight) safe rather than merely disciplined.
type Graph[T comparable] struct {
	mu sync.Mutex

	nodes        map[T]struct{}
	dependedUpon map[T]map[T]struct{} // node -> set of nodes it depends on
	dependingOn  map[T]map[T]struct{} // node -> set of nodes depending on it
}

// NewGraph creates an empty graph.
func NewGraph[T comparable]() *Graph[T] {
	return &Graph[T]{
		nodes:        make(map[T]struct{}),
		dependedUpon: make(map[T]map[T]struct{}),
		dependingOn:  make(map[T]map[T]struct{}),
	}
}

// AddNode inserts t as a node if not already present. Idempotent; never
// creates edges.
func (g *Graph[T]) AddNode(t T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(t)
}

func (g *Graph[T]) addNodeLocked(t T) {
	if _, ok := g.nodes[t]; ok {
		return
	}
	g.nodes[t] = struct{}{}
}

// AddEdge registers that from depends on to. Both endpoints are
// inserted as nodes if absent. Idempotent on duplicate edges.
func (g *Graph[T]) AddEdge(from, to T) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(from)
	g.addNodeLocked(to)

	if g.dependedUpon[from] == nil {
		g.dependedUpon[from] = make(map[T]struct{})
	}
	g.dependedUpon[from][to] = struct{}{}

	if g.dependingOn[to] == nil {
		g.dependingOn[to] = make(map[T]struct{})
	}
	g.dependingOn[to][from] = struct{}{}
}

// RemoveNode removes t from the graph and erases every edge mentioning
// it in either direction, so that dependents can become free. Removal
// of a non-member is a no-op.
//
// This walks dependingOn[t] — the nodes that depend on t — to find
// exactly the adjacency lists that can mention t, rather than scanning
// every key of dependedUpon. Spec calls this out as the preferred,
// large-graph-friendly variant.
func (g *Graph[T]) RemoveNode(t T) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[t]; !ok {
		return
	}

	for dependent := range g.dependingOn[t] {
		if deps := g.dependedUpon[dependent]; deps != nil {
			delete(deps, t)
			if len(deps) == 0 {
				delete(g.dependedUpon, dependent)
			}
		}
	}
	delete(g.dependingOn, t)

	for prereq := range g.dependedUpon[t] {
		if dependents := g.dependingOn[prereq]; dependents != nil {
			delete(dependents, t)
			if len(dependents) == 0 {
				delete(g.dependingOn, prereq)
			}
		}
	}
	delete(g.dependedUpon, t)

	delete(g.nodes, t)
}

// FreeNodes returns every node whose dependedUpon set is empty or
// absent. The result is a point-in-time snapshot; callers must not
// assume stability under concurrent mutation.
func (g *Graph[T]) FreeNodes() []T {
	g.mu.Lock()
	defer g.mu.Unlock()

	free := make([]T, 0, len(g.nodes))
	for n := range g.nodes {
		if len(g.dependedUpon[n]) == 0 {
			free = append(free, n)
		}
	}
	return free
}

// Values returns every node currently in the graph.
func (g *Graph[T]) Values() []T {
	g.mu.Lock()
	defer g.mu.Unlock()

	values := make([]T, 0, len(g.nodes))
	for n := range g.nodes {
		values = append(values, n)
	}
	return values
}

// Validate performs the optional cycle-detection pass the spec leaves
// to the caller: a cycle in the graph is a caller error that the core
// does not enforce at AddEdge time, since doing so would make AddEdge
// itself O(V). Validate walks dependedUpon with a DFS and recursion
// stack, returning ErrCyclicDependency wrapped with the cycle's nodes
// if one is found.
func (g *Graph[T]) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	visited := make(map[T]bool, len(g.nodes))
	onStack := make(map[T]bool, len(g.nodes))

	var cycle []T
	var closing T
	closed := false
	var visit func(n T) bool
	visit = func(n T) bool {
		visited[n] = true
		onStack[n] = true

		for dep := range g.dependedUpon[n] {
			if onStack[dep] {
				cycle = []T{n, dep}
				closing = dep
				return true
			}
			if !visited[dep] {
				if visit(dep) {
					// Unwinding stops collecting at the node that closes
					// the cycle; its DFS ancestors are not part of it.
					if !closed {
						if n == closing {
							closed = true
						} else {
							cycle = append(cycle, n)
						}
					}
					return true
				}
			}
		}

		onStack[n] = false
		return false
	}

	for n := range g.nodes {
		if !visited[n] {
			if visit(n) {
				return fmt.Errorf("%w: %v", dagerr.ErrCyclicDependency, cycle)
			}
		}
	}
	return nil
}

// Dump returns a human-readable rendering of nodes, the current free
// frontier, and remaining dependency edges. Format is not contractual;
// it exists for diagnostics.
func (g *Graph[T]) Dump() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder

	nodes := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, fmt.Sprint(n))
	}
	sort.Strings(nodes)

	fmt.Fprintf(&b, "nodes (%d): %v\n", len(nodes), nodes)

	free := make([]string, 0)
	for n := range g.nodes {
		if len(g.dependedUpon[n]) == 0 {
			free = append(free, fmt.Sprint(n))
		}
	}
	sort.Strings(free)
	fmt.Fprintf(&b, "free (%d): %v\n", len(free), free)

	fmt.Fprintf(&b, "edges:\n")
	edgeNodes := make([]string, 0, len(g.dependedUpon))
	byStr := make(map[string]T, len(g.dependedUpon))
	for n := range g.dependedUpon {
		s := fmt.Sprint(n)
		edgeNodes = append(edgeNodes, s)
		byStr[s] = n
	}
	sort.Strings(edgeNodes)
	for _, s := range edgeNodes {
		n := byStr[s]
		deps := make([]string, 0, len(g.dependedUpon[n]))
		for d := range g.dependedUpon[n] {
			deps = append(deps, fmt.Sprint(d))
		}
		sort.Strings(deps)
		fmt.Fprintf(&b, "  %s -> %v\n", s, deps)
	}

	return b.String()
}
