package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ib-77/coflow/internal/scenario"
	"github.com/ib-77/coflow/pkg/flow"
	"github.com/ib-77/coflow/pkg/flow/core"
	"github.com/ib-77/coflow/pkg/flow/join"
	"github.com/ib-77/coflow/pkg/flow/race"
	"github.com/spf13/cobra"
)

// ErrBatchFailed is returned when the aggregator surfaced a failure.
var ErrBatchFailed = errors.New("batch failed")

const (
	kindJoin = "all"
	kindRace = "any"
)

type aggregateFlags struct {
	scenario           string
	concurrency        string
	failsWhenAnyFailed bool
	failsWhenAllFailed bool
	structured         bool
	output             string
	showUnused         bool
}

func newAggregateCmd(g *globalFlags, kind string) *cobra.Command {
	f := &aggregateFlags{}

	cmd := &cobra.Command{
		Use:  kind,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, g, f, kind)
		},
	}

	switch kind {
	case kindJoin:
		cmd.Short = "Run every task and wait for all of them (JOIN)"
	case kindRace:
		cmd.Short = "Run every task and resolve with the first qualifying one (RACE)"
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.scenario, "scenario", "s", "", "scenario yaml file")
	flags.StringVarP(&f.concurrency, "concurrency", "c", "", "parallel, serial, or number of worker slots")
	flags.BoolVar(&f.failsWhenAnyFailed, "fails-when-any-failed", false, "fail as soon as any task failed")
	flags.BoolVar(&f.failsWhenAllFailed, "fails-when-all-failed", false, "fail when every task failed")
	flags.BoolVar(&f.structured, "structured", false, "print tagged results instead of raw values")
	flags.StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	flags.BoolVar(&f.showUnused, "show-unused", false, "wait for and print results that were not returned")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// overrides turns explicitly set flags into options applied after the
// scenario's own policy.
func (f *aggregateFlags) overrides(cmd *cobra.Command) ([]core.Option, error) {
	var opts []core.Option
	flags := cmd.Flags()

	if flags.Changed("concurrency") {
		c, err := scenario.ParseConcurrency(f.concurrency)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithConcurrency(c))
	}
	if flags.Changed("fails-when-any-failed") {
		opts = append(opts, core.WithFailsWhenAnyFailed(f.failsWhenAnyFailed))
	}
	if flags.Changed("fails-when-all-failed") {
		opts = append(opts, core.WithFailsWhenAllFailed(f.failsWhenAllFailed))
	}
	if flags.Changed("structured") {
		opts = append(opts, core.WithStructured(f.structured))
	}
	return opts, nil
}

func runAggregate(cmd *cobra.Command, g *globalFlags, f *aggregateFlags, kind string) error {
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("unknown output format %q", f.output)
	}

	s, err := scenario.Load(f.scenario)
	if err != nil {
		return err
	}

	opts, err := s.Options()
	if err != nil {
		return err
	}
	extra, err := f.overrides(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, extra...)
	opts = append(opts, core.WithLogger(g.logger(cmd.ErrOrStderr())))

	structured := s.Structured
	if cmd.Flags().Changed("structured") {
		structured = f.structured
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	unused := &unusedCollector{}
	if f.showUnused {
		opts = append(opts, unused.option())
	}

	tasks := s.Build()
	names := s.Names()
	rep := &report{Aggregator: kind, Scenario: s.Name, Tasks: len(tasks)}

	start := time.Now()
	switch kind {
	case kindJoin:
		results, err := join.AllResults(ctx, tasks, opts...)
		rep.setElapsed(time.Since(start))
		if errors.Is(err, core.ErrInvalidConcurrency) {
			return err
		}
		rep.setJoin(names, results, err, structured)
	case kindRace:
		result, err := race.AnyResult(ctx, tasks, opts...)
		rep.setElapsed(time.Since(start))
		if errors.Is(err, core.ErrInvalidConcurrency) {
			return err
		}
		rep.setRace(result, err, structured)
	}

	if f.showUnused {
		want := 0
		if kind == kindRace || rep.Failed {
			want = len(tasks) - 1
		}
		rep.Unused = unused.wait(ctx, want, structured)
	}

	if err := rep.render(cmd.OutOrStdout(), f.output); err != nil {
		return err
	}
	if rep.Failed {
		return fmt.Errorf("%w: %s", ErrBatchFailed, rep.Error)
	}
	return nil
}

type unusedCollector struct {
	mu      sync.Mutex
	results []flow.Result[any]
	changed chan struct{}
}

func (u *unusedCollector) option() core.Option {
	u.changed = make(chan struct{}, 1)
	return core.WithUnusedResultHandler(func(ctx context.Context, err error, data any) error {
		u.mu.Lock()
		u.results = append(u.results, flow.Wrap(err, data))
		u.mu.Unlock()

		select {
		case u.changed <- struct{}{}:
		default:
		}
		return nil
	})
}

// wait blocks until want unused results arrived or ctx ends.
func (u *unusedCollector) wait(ctx context.Context, want int, structured bool) []entry {
	for {
		u.mu.Lock()
		n := len(u.results)
		u.mu.Unlock()
		if n >= want {
			break
		}

		select {
		case <-u.changed:
		case <-ctx.Done():
			return u.entries(structured)
		}
	}
	return u.entries(structured)
}

func (u *unusedCollector) entries(structured bool) []entry {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]entry, len(u.results))
	for i, r := range u.results {
		out[i] = newEntry(-1, "", r, structured)
	}
	return out
}
