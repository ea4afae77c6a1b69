// Command recyclebot is the entry point for the recycling advice assistant.
// It provides a CLI interface (via Cobra) for knowledge-base ingestion and
// one-shot or interactive questions, plus an HTTP service mode.
package main

import (
	"fmt"
	"os"

	"github.com/b-franke/recyclebot/cmd/recyclebot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
