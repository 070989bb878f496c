package core

import (
	"context"

	"github.com/ib-77/coflow/pkg/flow"
)

// Completion is one finished task as seen by Completions.
type Completion[T any] struct {
	Index  int
	Result flow.Result[T]
}

// Completions starts tasks like Execute and streams their completions in
// finish order. The channel is closed after the last task completed. Once ctx
// is done, remaining completions are dropped but the tasks still run to the end.
func Completions[T any](ctx context.Context, tasks []flow.Task[T], c Concurrency) <-chan Completion[T] {
	out := make(chan Completion[T])

	go func() {
		defer close(out)

		Execute(ctx, tasks, c, func(index int, r flow.Result[T]) {
			select {
			case out <- Completion[T]{Index: index, Result: r}:
			case <-ctx.Done():
			}
		})
	}()

	return out
}

func FromChanMany[T any](ctx context.Context, out <-chan T) []T {
	res := make([]T, 0)

	for {
		select {
		case v, ok := <-out:
			if !ok {
				return res
			}
			res = append(res, v)
		case <-ctx.Done():
			return res
		}
	}
}
