// cmd/main.go is the application entry point.
// `eventos serve` starts the HTTP API; the other subcommands operate on the
// configured store directly.
package main

import (
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
