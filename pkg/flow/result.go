package flow

import (
	"time"

	"github.com/google/uuid"
)

// Result is the tagged outcome of a single task: either a success carrying
// data or a failure carrying an error.
type Result[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	result    T
	err       error
	isSuccess bool
}

func Success[T any](r T) Result[T] {
	return Result[T]{
		result:    r,
		isSuccess: true,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		isSuccess: false,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// Wrap normalizes a raw (error, data) pair. A non-nil error always wins.
func Wrap[T any](err error, data T) Result[T] {
	if !IsNil(err) {
		return Fail[T](err)
	}
	return Success(data)
}

// WrapMany is Wrap for tasks that signal several values; they are collapsed
// into one ordered slice.
func WrapMany[T any](err error, values ...T) Result[[]T] {
	if !IsNil(err) {
		return Fail[[]T](err)
	}
	data := make([]T, len(values))
	copy(data, values)
	return Success(data)
}

func (r Result[T]) Result() T {
	return r.result
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) IsSuccess() bool {
	return r.isSuccess
}

func (r Result[T]) IsFailure() bool {
	return !r.isSuccess && r.err != nil
}

func (r Result[T]) CreatedAt() time.Time {
	return r.createdAt
}

// IsEmpty reports whether r is the zero Result, i.e. neither a success nor a
// failure. Race over zero tasks resolves to an empty Result.
func (r Result[T]) IsEmpty() bool {
	return r.err == nil && !r.isSuccess
}

func (r Result[T]) Id() uuid.UUID {
	return r.id
}

// Unpack returns the raw (data, error) pair.
func (r Result[T]) Unpack() (T, error) {
	return r.result, r.err
}

// Raw returns the untagged value of r: the data on success, otherwise the
// error itself when T can hold it (T is any or error), otherwise T's zero value.
func (r Result[T]) Raw() T {
	if r.isSuccess {
		return r.result
	}
	if v, ok := any(r.err).(T); ok {
		return v
	}
	var zero T
	return zero
}
