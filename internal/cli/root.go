package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbose bool
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand builds the coflow command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "coflow",
		Short: "coflow - run task batches through JOIN and RACE aggregators",
		Long: `coflow runs simulated task batches described in yaml scenario files through
the JOIN ("all") and RACE ("any") aggregators and reports the outcome.

Scenario file:
  concurrency: 2              # parallel | serial | <slots>
  fails_when_any_failed: true
  tasks:
    - name: primary
      delay: 50ms
      value: 50
    - name: mirror
      delay: 10ms
      error: connection refused`,
		// Don't show usage when there's an error
		SilenceUsage: true,
		// Don't show errors (main prints them)
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log aggregator activity to stderr")

	root.AddCommand(
		newAggregateCmd(g, kindJoin),
		newAggregateCmd(g, kindRace),
		newTraceCmd(g),
		newWaitCmd(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
