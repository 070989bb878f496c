package flow

import (
	"errors"
	"reflect"
)

var (
	// ErrNilTask is the failure recorded for a nil task.
	ErrNilTask = errors.New("coflow: nil task")

	// ErrTaskPanic wraps the value recovered from a panicking task.
	ErrTaskPanic = errors.New("coflow: task panicked")
)

func IsNil(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func GetErrors(err error) []error {
	if IsNil(err) {
		return []error{}
	}

	e, ok := err.(interface{ Unwrap() []error })
	if ok {
		return e.Unwrap()
	}

	return []error{err}
}
