package flow

import (
	"context"
	"time"
)

// Task is a unit of asynchronous work. It is started exactly once and yields
// exactly one outcome. The context is the execution context of the
// aggregator call that runs it.
type Task[T any] func(ctx context.Context) (T, error)

type ResultProvider[T any] interface {
	// Result returns the successful result value
	Result() T
	// CreatedAt time creation (UTC)
	CreatedAt() time.Time
}

// WithError defines an interface for types that can return a result or an error
type WithError[T any] interface {
	ResultProvider[T]
	// Err returns the error if operation failed
	Err() error
	// IsSuccess returns true if the operation was successful
	IsSuccess() bool
}

var _ WithError[int] = Result[int]{}
