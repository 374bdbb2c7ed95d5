// Command ontoground grounds extracted clinical facts to a curated concept
// dictionary and grows that dictionary from what could not be grounded.
package main

import (
	"os"

	"github.com/turtacn/OntoGround/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute reports the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
