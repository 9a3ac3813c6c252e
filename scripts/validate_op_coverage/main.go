// validate_op_coverage checks that every declared operation kind has an
// explicit transform rule, keeping the catalogue and the provenance engine
// in lockstep during review.
package main

import (
	"fmt"
	"io"
	"os"

	"seqprov/internal/validation"
)

const defaultDir = "pkg/provenance"

func main() {
	os.Exit(run(os.Args, os.Stderr, validation.ValidateOpCoverage))
}

func run(args []string, stderr io.Writer, validate func(string) ([]validation.Error, error)) int {
	dir := defaultDir
	if len(args) >= 2 && args[1] != "" {
		dir = args[1]
	}

	violations, err := validate(dir)
	if err != nil {
		fmt.Fprintf(stderr, "operation coverage check failed: %v\n", err)
		return 2
	}
	if len(violations) > 0 {
		fmt.Fprintf(stderr, "Found %d operation coverage violation(s):\n", len(violations))
		for _, v := range violations {
			fmt.Fprintf(stderr, "  %s\n", v)
		}
		return 1
	}
	return 0
}
