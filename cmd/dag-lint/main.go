// Command dag-lint runs static analysis on pkg/dag usage.
//
// Usage:
//
//	dag-lint ./...
//
// See internal/lint for the checks this runs.
package main

import (
	"github.com/example/dagrunner/internal/lint"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
