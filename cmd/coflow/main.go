package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ib-77/coflow/internal/cli"
)

// runMain executes the CLI and returns the process exit code.
func runMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain())
}
