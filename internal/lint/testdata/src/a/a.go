// Package a is a test package for the daglint analyzer.
package a

import "dag"

// Test cases

func selfEdge() {
	g := dag.NewGraph()
	g.AddEdge("x", "x") // want "AddEdge called with identical arguments"
}

func selfEdgeIdent() {
	g := dag.NewGraph()
	x := "x"
	g.AddEdge(x, x) // want "AddEdge called with identical arguments"
}

func emptyNode() {
	g := dag.NewGraph()
	g.AddNode("") // want "AddNode called with an empty string literal"
}

func duplicateEdge() {
	g := dag.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("c", "d")
	g.AddEdge("a", "b") // want `AddEdge\("a", "b"\) duplicates the call at`
}

// Valid cases - should NOT produce warnings

func validEdges() {
	g := dag.NewGraph()
	g.AddNode("build")
	g.AddEdge("build", "test")
	g.AddEdge("test", "deploy")
}

func differentVarsSameValue() {
	g := dag.NewGraph()
	from, to := "p", "q"
	g.AddEdge(from, to)
	g.AddEdge("p", "q")
}
