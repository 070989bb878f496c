package core

import (
	"context"
	"fmt"

	"github.com/ib-77/coflow/pkg/flow"
)

// DispatchUnused offers every result except the one at skip to the unused
// result handler, in index order. Pass skip < 0 to offer all of them.
// A failing handler is reported and delivery continues with the next index.
func DispatchUnused[T any](ctx context.Context, cfg Config, results []flow.Result[T], skip int) {
	if cfg.unused == nil {
		return
	}

	for index, r := range results {
		if index == skip {
			continue
		}
		if err := callUnused(ctx, cfg, r); err != nil {
			cfg.report(ctx, fmt.Errorf("task %d: %w", index, err))
		}
	}
}

func callUnused[T any](ctx context.Context, cfg Config, r flow.Result[T]) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()

	return cfg.unused(ctx, r.Err(), r.Result())
}
