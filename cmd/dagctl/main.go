// Command dagctl builds, validates, and runs task graphs described in
// a plain edge-list file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dagctl:", err)
		os.Exit(1)
	}
}
