package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/impresso/impresso-linguistic-processing/cmd"
	"github.com/impresso/impresso-linguistic-processing/internal/publisher"
)

const (
	exitFailure       = 1
	exitAlreadyExists = 3
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, publisher.ErrAlreadyPublished) {
			// Distinguished non-error termination: the destination was
			// published by an earlier run and --quit-if-s3-output-exists
			// was set. Orchestration layers key off this exit code.
			os.Exit(exitAlreadyExists)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}
