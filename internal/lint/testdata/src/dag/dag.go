// Package dag is a stub for testing the daglint analyzer.
// It provides minimal type stubs so the linter can analyze code that
// imports the real pkg/dag package without needing the real one.
package dag

// Graph is a stub standing in for pkg/dag.Graph.
type Graph struct{}

// NewGraph returns a stub graph.
func NewGraph() *Graph { return &Graph{} }

// AddNode is a stub for Graph.AddNode.
func (g *Graph) AddNode(id string) {}

// AddEdge is a stub for Graph.AddEdge.
func (g *Graph) AddEdge(from, to string) {}
