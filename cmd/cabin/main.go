// Command cabin is a Cargo-style package manager and build orchestrator
// for C++.
package main

import (
	"fmt"
	"os"

	"github.com/yaito3014/cabin/internal/cli"
)

// The layer that raised the error already composed a human-readable
// message, so it is surfaced verbatim rather than walking Unwrap for the
// innermost cause.
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
