package solo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ib-77/coflow/pkg/flow"
)

// ErrDeadline is the default failure of a Deadline task.
var ErrDeadline = errors.New("coflow: deadline reached")

func Succeed[T any](v T) flow.Task[T] {
	return func(context.Context) (T, error) {
		return v, nil
	}
}

func Fail[T any](err error) flow.Task[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// Wait pauses for delay. It returns early with the context error if the
// execution context ends first.
func Wait(delay time.Duration) flow.Task[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sleep(ctx, delay)
	}
}

// After succeeds with v once delay has passed.
func After[T any](delay time.Duration, v T) flow.Task[T] {
	return func(ctx context.Context) (T, error) {
		if err := sleep(ctx, delay); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
}

// AfterFail fails with err once delay has passed.
func AfterFail[T any](delay time.Duration, err error) flow.Task[T] {
	return func(ctx context.Context) (T, error) {
		var zero T
		if cerr := sleep(ctx, delay); cerr != nil {
			return zero, cerr
		}
		return zero, err
	}
}

// Deadline fails with err (ErrDeadline when nil) after delay. Raced against
// real work with fail-fast enabled it acts as a timeout:
//
//	v, err := race.Any(ctx, []flow.Task[int]{work, solo.Deadline[int](time.Second, nil)},
//		core.WithFailsWhenAnyFailed(true))
//
// A timeout built this way does not cancel the work task.
func Deadline[T any](delay time.Duration, err error) flow.Task[T] {
	if err == nil {
		err = fmt.Errorf("%w after %s", ErrDeadline, delay)
	}
	return AfterFail[T](delay, err)
}

// Try adapts a plain function into a task.
func Try[T any](fn func(ctx context.Context) (T, error)) flow.Task[T] {
	if fn == nil {
		return nil
	}
	return flow.Task[T](fn)
}

// Multi adapts a function that yields several values; they are collapsed
// into a single ordered slice.
func Multi[T any](fn func(ctx context.Context) ([]T, error)) flow.Task[[]T] {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) ([]T, error) {
		values, err := fn(ctx)
		return flow.WrapMany(err, values...).Unpack()
	}
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
