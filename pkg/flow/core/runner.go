package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ib-77/coflow/pkg/flow"
	"golang.org/x/sync/errgroup"
)

// Execute runs tasks under the given concurrency and reports every completion
// by its original index. It returns once all tasks have completed.
//
// onComplete is called exactly once per task and never concurrently with
// itself. In serial mode task i+1 starts only after onComplete(i, ...)
// returned; in the other modes completions arrive in the order tasks finish.
func Execute[T any](ctx context.Context, tasks []flow.Task[T], c Concurrency,
	onComplete func(index int, r flow.Result[T])) {

	slots := c.Slots(len(tasks))
	if slots == 0 {
		return
	}

	var (
		mu   sync.Mutex
		next atomic.Int64
		eg   errgroup.Group
	)

	report := func(index int, r flow.Result[T]) {
		mu.Lock()
		defer mu.Unlock()
		onComplete(index, r)
	}

	for range slots {
		eg.Go(func() error {
			Locomotive(ctx, tasks, &next, report)
			return nil
		})
	}

	_ = eg.Wait()
}
