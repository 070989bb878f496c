package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ib-77/coflow/pkg/flow"
)

// Locomotive is one worker slot. It claims the next unstarted index from
// next, runs that task, reports it, and repeats until no task is left.
// Claims are atomic, so two slots never run the same index.
func Locomotive[T any](ctx context.Context, tasks []flow.Task[T], next *atomic.Int64,
	report func(index int, r flow.Result[T])) {

	for {
		index := int(next.Add(1) - 1)
		if index >= len(tasks) {
			return
		}
		report(index, RunTask(ctx, tasks[index]))
	}
}

// RunTask drives a single task to completion and wraps its outcome.
// Nil tasks and panics become failures.
func RunTask[T any](ctx context.Context, task flow.Task[T]) (res flow.Result[T]) {
	if task == nil {
		return flow.Fail[T](flow.ErrNilTask)
	}

	defer func() {
		if r := recover(); r != nil {
			res = flow.Fail[T](fmt.Errorf("%w: %v", flow.ErrTaskPanic, r))
		}
	}()

	data, err := task(ctx)
	return flow.Wrap(err, data)
}
