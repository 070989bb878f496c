package join

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ib-77/coflow/pkg/flow"
	"github.com/ib-77/coflow/pkg/flow/core"
)

// AllResults runs every task and waits for all of them to complete. On
// success it returns one tagged result per task, in task order.
//
// The call fails with the error of the lowest-index failed task when any task
// failed and either FailsWhenAnyFailed (default true) is set, or
// FailsWhenAllFailed is set and no task succeeded. The other results are then
// passed to the unused result handler after AllResults has returned.
func AllResults[T any](ctx context.Context, tasks []flow.Task[T], opts ...core.Option) ([]flow.Result[T], error) {
	cfg, err := core.NewConfig[T](ctx, core.JoinDefaults(), opts...)
	if err != nil {
		return nil, err
	}
	return all(ctx, tasks, cfg)
}

// All is AllResults with raw values: slot i holds the data of task i, or its
// error when T can hold one (T is any or error). With WithStructured(true)
// and T = any, slots hold the tagged flow.Result instead.
func All[T any](ctx context.Context, tasks []flow.Task[T], opts ...core.Option) ([]T, error) {
	cfg, err := core.NewConfig[T](ctx, core.JoinDefaults(), opts...)
	if err != nil {
		return nil, err
	}

	results, err := all(ctx, tasks, cfg)
	if err != nil {
		return nil, err
	}

	values := make([]T, len(results))
	for i, r := range results {
		if cfg.Structured {
			if v, ok := any(r).(T); ok {
				values[i] = v
				continue
			}
		}
		values[i] = r.Raw()
	}
	return values, nil
}

type batch[T any] struct {
	results      []flow.Result[T]
	anyFailed    bool
	anySucceeded bool
}

func (b *batch[T]) complete(index int, r flow.Result[T]) {
	b.results[index] = r
	if r.IsSuccess() {
		b.anySucceeded = true
	} else {
		b.anyFailed = true
	}
}

// firstFailure returns the lowest index holding a failure, or -1.
func (b *batch[T]) firstFailure() int {
	for i, r := range b.results {
		if !r.IsSuccess() {
			return i
		}
	}
	return -1
}

func (b *batch[T]) fails(cfg core.Config) bool {
	if !b.anyFailed {
		return false
	}
	return cfg.FailsWhenAnyFailed || (cfg.FailsWhenAllFailed && !b.anySucceeded)
}

func all[T any](ctx context.Context, tasks []flow.Task[T], cfg core.Config) ([]flow.Result[T], error) {
	if len(tasks) == 0 {
		return []flow.Result[T]{}, nil
	}

	cfg.Logger = cfg.Logger.With(slog.String("batch_id", uuid.NewString()), slog.String("aggregator", "join"))
	cfg.Logger.DebugContext(ctx, "starting tasks",
		slog.Int("tasks", len(tasks)), slog.String("concurrency", cfg.Concurrency.String()))

	b := &batch[T]{results: make([]flow.Result[T], len(tasks))}
	core.Execute(ctx, tasks, cfg.Concurrency, b.complete)

	if !b.fails(cfg) {
		cfg.Logger.DebugContext(ctx, "all tasks completed", slog.Bool("failed", false))
		return b.results, nil
	}

	surfaced := b.firstFailure()
	cfg.Logger.DebugContext(ctx, "all tasks completed", slog.Bool("failed", true), slog.Int("index", surfaced))

	if cfg.HasUnusedResultHandler() {
		delivered := make(chan struct{})
		defer close(delivered)

		go func() {
			<-delivered
			core.DispatchUnused(ctx, cfg, b.results, surfaced)
		}()
	}

	return nil, b.results[surfaced].Err()
}
