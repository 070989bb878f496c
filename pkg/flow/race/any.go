package race

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ib-77/coflow/pkg/flow"
	"github.com/ib-77/coflow/pkg/flow/core"
)

// AnyResult runs every task and resolves with the first qualifying
// completion, by completion order:
//   - FailsWhenAnyFailed false (default): the first success resolves the call
//   - FailsWhenAnyFailed true: the first failure fails the call
//
// If nothing resolved it early, the call waits for all tasks: a recorded
// success wins, otherwise the first failure fails the call when
// FailsWhenAnyFailed or FailsWhenAllFailed (default true) is set, or is
// returned as a failed result without error.
//
// AnyResult returns as soon as the outcome is decided. Tasks still running
// are not cancelled; once all of them finished, every result except the
// returned one goes to the unused result handler in index order.
// Zero tasks resolve to an empty result.
func AnyResult[T any](ctx context.Context, tasks []flow.Task[T], opts ...core.Option) (flow.Result[T], error) {
	cfg, err := core.NewConfig[T](ctx, core.RaceDefaults(), opts...)
	if err != nil {
		return flow.Result[T]{}, err
	}

	d := run(ctx, tasks, cfg)
	if d.fail {
		return flow.Result[T]{}, d.result.Err()
	}
	return d.result, nil
}

// Any is AnyResult with the raw value: the winning data, or the error
// returned as a normal result when T can hold it (T is any or error). With
// WithStructured(true) and T = any, the tagged flow.Result is returned.
func Any[T any](ctx context.Context, tasks []flow.Task[T], opts ...core.Option) (T, error) {
	var zero T

	cfg, err := core.NewConfig[T](ctx, core.RaceDefaults(), opts...)
	if err != nil {
		return zero, err
	}

	d := run(ctx, tasks, cfg)
	switch {
	case d.fail:
		return zero, d.result.Err()
	case d.result.IsEmpty():
		return zero, nil
	}

	if cfg.Structured {
		if v, ok := any(d.result).(T); ok {
			return v, nil
		}
	}
	return d.result.Raw(), nil
}

type decision[T any] struct {
	result flow.Result[T]
	fail   bool
}

type racer[T any] struct {
	cfg          core.Config
	results      []flow.Result[T]
	firstSuccess int
	firstFailure int
	used         int
	finalized    bool
	outcome      chan decision[T]
}

func (r *racer[T]) complete(index int, res flow.Result[T]) {
	r.results[index] = res

	if res.IsSuccess() {
		if r.firstSuccess < 0 {
			r.firstSuccess = index
			if !r.cfg.FailsWhenAnyFailed {
				r.finalize()
			}
		}
		return
	}

	if r.firstFailure < 0 {
		r.firstFailure = index
		if r.cfg.FailsWhenAnyFailed {
			r.finalize()
		}
	}
}

// finalize decides the outcome from what was recorded so far. Only the first
// call has an effect.
func (r *racer[T]) finalize() {
	if r.finalized {
		return
	}
	r.finalized = true

	hasFailure := r.firstFailure >= 0
	hasSuccess := r.firstSuccess >= 0

	var d decision[T]
	switch {
	case hasFailure && (r.cfg.FailsWhenAnyFailed || (r.cfg.FailsWhenAllFailed && !hasSuccess)):
		r.used = r.firstFailure
		d.fail = true
	case hasSuccess:
		r.used = r.firstSuccess
	case hasFailure:
		r.used = r.firstFailure
	}
	if r.used >= 0 {
		d.result = r.results[r.used]
	}

	r.cfg.Logger.Debug("race decided", slog.Int("index", r.used), slog.Bool("failed", d.fail))
	r.outcome <- d
}

func run[T any](ctx context.Context, tasks []flow.Task[T], cfg core.Config) decision[T] {
	if len(tasks) == 0 {
		return decision[T]{}
	}

	cfg.Logger = cfg.Logger.With(slog.String("batch_id", uuid.NewString()), slog.String("aggregator", "race"))
	cfg.Logger.DebugContext(ctx, "starting tasks",
		slog.Int("tasks", len(tasks)), slog.String("concurrency", cfg.Concurrency.String()))

	r := &racer[T]{
		cfg:          cfg,
		results:      make([]flow.Result[T], len(tasks)),
		firstSuccess: -1,
		firstFailure: -1,
		used:         -1,
		outcome:      make(chan decision[T], 1),
	}
	delivered := make(chan struct{})

	go func() {
		core.Execute(ctx, tasks, cfg.Concurrency, r.complete)
		r.finalize()

		<-delivered
		cfg.Logger.DebugContext(ctx, "all tasks completed")
		core.DispatchUnused(ctx, cfg, r.results, r.used)
	}()

	d := <-r.outcome
	close(delivered)
	return d
}
