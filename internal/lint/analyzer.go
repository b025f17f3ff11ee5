// Package lint provides static analysis checks for callers of pkg/dag.
//
// This analyzer detects common mistakes building a dag.Graph:
//   - AddEdge(x, x) — a node depending on itself, which Graph.Validate
//     will always reject as a one-node cycle
//   - AddNode("") — an empty-string node identity, indistinguishable
//     from any other empty-string node in the same graph
//   - AddEdge("a", "b") repeated verbatim elsewhere in the same
//     package — harmless (AddEdge is idempotent) but usually a
//     copy-paste leftover worth flagging
//
// Usage:
//
//	go install github.com/example/dagrunner/cmd/dag-lint@latest
//	dag-lint ./...
package lint

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer is the pkg/dag lint analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "daglint",
	Doc:      "checks for common mistakes using pkg/dag",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{(*ast.CallExpr)(nil)}

	seen := map[string]token.Pos{}

	insp.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}

		switch sel.Sel.Name {
		case "AddEdge":
			checkSelfEdge(pass, call)
			checkDuplicateEdge(pass, call, seen)
		case "AddNode":
			checkEmptyStringArg(pass, call, "AddNode")
		}
	})

	return nil, nil
}

// checkSelfEdge reports AddEdge(x, x) calls: a node made to depend on
// itself can never become free.
func checkSelfEdge(pass *analysis.Pass, call *ast.CallExpr) {
	if len(call.Args) != 2 {
		return
	}
	if identical(call.Args[0], call.Args[1]) {
		pass.Reportf(call.Pos(), "AddEdge called with identical arguments — a node cannot depend on itself")
	}
}

// checkEmptyStringArg reports AddNode("") calls, which create a node
// whose identity is indistinguishable from any other empty-string node
// in the same graph.
func checkEmptyStringArg(pass *analysis.Pass, call *ast.CallExpr, funcName string) {
	if len(call.Args) == 0 {
		return
	}
	if lit, ok := call.Args[0].(*ast.BasicLit); ok && lit.Kind == token.STRING {
		if lit.Value == `""` || lit.Value == "``" {
			pass.Reportf(lit.Pos(), "%s called with an empty string literal", funcName)
		}
	}
}

// checkDuplicateEdge reports an AddEdge call whose two arguments are
// both literals already seen together, verbatim, in an earlier AddEdge
// call in the same package. seen accumulates across the whole pass, so
// order of detection follows traversal order, not source order.
func checkDuplicateEdge(pass *analysis.Pass, call *ast.CallExpr, seen map[string]token.Pos) {
	if len(call.Args) != 2 {
		return
	}
	from, ok := literalKey(call.Args[0])
	if !ok {
		return
	}
	to, ok := literalKey(call.Args[1])
	if !ok {
		return
	}

	key := from + "\x00" + to
	if prior, ok := seen[key]; ok {
		pass.Reportf(call.Pos(), "AddEdge(%s, %s) duplicates the call at %s", from, to, pass.Fset.Position(prior))
		return
	}
	seen[key] = call.Pos()
}

// literalKey returns a canonical string for e if e is a basic literal,
// and false otherwise — only literal argument pairs are tracked, since
// two calls built from different variables aren't necessarily the same
// edge even if the variables happen to hold equal values right now.
func literalKey(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// identical reports whether two argument expressions are syntactically
// the same identifier or the same literal — a conservative check that
// only catches the obvious case, not general aliasing.
func identical(a, b ast.Expr) bool {
	switch av := a.(type) {
	case *ast.Ident:
		bv, ok := b.(*ast.Ident)
		return ok && av.Name == bv.Name
	case *ast.BasicLit:
		bv, ok := b.(*ast.BasicLit)
		return ok && av.Kind == bv.Kind && av.Value == bv.Value
	default:
		return false
	}
}
