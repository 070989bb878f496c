package core

import (
	"context"
	"fmt"
)

type OptionKey string

const (
	WorkerOptionKey OptionKey = "worker_options"
)

type MaxLimitOption struct {
	Value int
}
type WorkerOptions struct {
	MaxCount MaxLimitOption
}

// WithWorkerOptions stores a default concurrency cap on ctx. Aggregator calls
// that do not pass WithConcurrency pick it up. A value <= 0 means parallel.
func WithWorkerOptions(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

func GetWorkerMaxCount(ctx context.Context, defaultMaxWorkers int) int {
	if ctx == nil {
		return defaultMaxWorkers
	}
	options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions)
	if ok {
		return options.MaxCount.Value
	}
	return defaultMaxWorkers
}

// Concurrency selects how the runner schedules tasks: all at once, one at a
// time in index order, or through a fixed number of worker slots.
type Concurrency struct {
	limit   int
	bounded bool
}

// Parallel starts every task immediately.
func Parallel() Concurrency {
	return Concurrency{}
}

// Serial runs tasks one after another in index order.
func Serial() Concurrency {
	return Concurrency{limit: 1, bounded: true}
}

// Bounded runs tasks through n worker slots. Bounded(1) is Serial.
func Bounded(n int) Concurrency {
	return Concurrency{limit: n, bounded: true}
}

// FromWorkers maps a worker count to a Concurrency: n <= 0 is Parallel.
func FromWorkers(n int) Concurrency {
	if n <= 0 {
		return Parallel()
	}
	return Bounded(n)
}

func (c Concurrency) IsParallel() bool {
	return !c.bounded
}

func (c Concurrency) IsSerial() bool {
	return c.bounded && c.limit == 1
}

// Limit returns the slot cap, or 0 for Parallel.
func (c Concurrency) Limit() int {
	if !c.bounded {
		return 0
	}
	return c.limit
}

// Slots returns how many worker slots are needed for taskCount tasks.
func (c Concurrency) Slots(taskCount int) int {
	if taskCount <= 0 {
		return 0
	}
	if !c.bounded || c.limit >= taskCount {
		return taskCount
	}
	return c.limit
}

func (c Concurrency) Validate() error {
	if c.bounded && c.limit < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.limit)
	}
	return nil
}

func (c Concurrency) String() string {
	switch {
	case c.IsParallel():
		return "parallel"
	case c.IsSerial():
		return "serial"
	default:
		return fmt.Sprintf("bounded(%d)", c.limit)
	}
}
