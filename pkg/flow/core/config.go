package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

var (
	// ErrInvalidConcurrency is returned when a bounded cap is below one.
	ErrInvalidConcurrency = errors.New("coflow: concurrency must be at least 1")

	// ErrHandlerType is returned when the unused result handler expects a
	// different data type than the tasks produce.
	ErrHandlerType = errors.New("coflow: unused result handler type mismatch")

	// ErrHandlerPanic wraps the value recovered from a panicking unused result handler.
	ErrHandlerPanic = errors.New("coflow: unused result handler panicked")
)

// Option configures an aggregator call.
type Option func(*Config)

// Config is the validated configuration of a single aggregator call.
type Config struct {
	Concurrency        Concurrency
	FailsWhenAnyFailed bool
	FailsWhenAllFailed bool
	Structured         bool
	Logger             *slog.Logger

	// ErrorReporter receives handler failures. Nil logs them through Logger.
	ErrorReporter func(ctx context.Context, err error)

	concurrencySet bool
	unused         func(ctx context.Context, err error, data any) error
	unusedType     reflect.Type
}

// JoinDefaults is the default policy of join.All: fail when any task failed.
func JoinDefaults() Config {
	return Config{
		FailsWhenAnyFailed: true,
		FailsWhenAllFailed: false,
	}
}

// RaceDefaults is the default policy of race.Any: fail only when every task failed.
func RaceDefaults() Config {
	return Config{
		FailsWhenAnyFailed: false,
		FailsWhenAllFailed: true,
	}
}

// NewConfig applies opts on top of defaults, resolves the concurrency from
// ctx when no option set it, and validates the result for tasks of type T.
func NewConfig[T any](ctx context.Context, defaults Config, opts ...Option) (Config, error) {
	cfg := defaults
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !cfg.concurrencySet {
		cfg.Concurrency = FromWorkers(GetWorkerMaxCount(ctx, 0))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := cfg.Concurrency.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.unused != nil {
		if want := reflect.TypeFor[T](); cfg.unusedType != want {
			return Config{}, fmt.Errorf("%w: handler takes %v, tasks produce %v", ErrHandlerType, cfg.unusedType, want)
		}
	}

	return cfg, nil
}

// HasUnusedResultHandler reports whether unused results are delivered anywhere.
func (c Config) HasUnusedResultHandler() bool {
	return c.unused != nil
}

func (c Config) report(ctx context.Context, err error) {
	if c.ErrorReporter != nil {
		c.ErrorReporter(ctx, err)
		return
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "calling unused result handler failed", slog.Any("error", err))
}

// WithConcurrency sets the scheduling mode.
func WithConcurrency(c Concurrency) Option {
	return func(cfg *Config) {
		cfg.Concurrency = c
		cfg.concurrencySet = true
	}
}

// WithMaxConcurrency is WithConcurrency(FromWorkers(n)): 0 means parallel,
// 1 serial, n a pool of n slots.
func WithMaxConcurrency(n int) Option {
	if n < 0 {
		panic("coflow: max concurrency cannot be negative")
	}
	return WithConcurrency(FromWorkers(n))
}

// WithFailsWhenAnyFailed makes the first failure fail the whole call.
func WithFailsWhenAnyFailed(enabled bool) Option {
	return func(cfg *Config) {
		cfg.FailsWhenAnyFailed = enabled
	}
}

// WithFailsWhenAllFailed makes the call fail when no task succeeded.
func WithFailsWhenAllFailed(enabled bool) Option {
	return func(cfg *Config) {
		cfg.FailsWhenAllFailed = enabled
	}
}

// WithStructured requests tagged results instead of raw values.
func WithStructured(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Structured = enabled
	}
}

// WithLogger sets the [*slog.Logger] used for debug records and handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithErrorReporter replaces the default logging of handler failures.
func WithErrorReporter(report func(ctx context.Context, err error)) Option {
	return func(cfg *Config) {
		cfg.ErrorReporter = report
	}
}

// WithUnusedResultHandler registers h for every result that was computed but
// not returned by the aggregator. It is called once per such task, in index
// order, after the outcome has been delivered. Errors and panics from h are
// reported and never reach the caller.
func WithUnusedResultHandler[T any](h func(ctx context.Context, err error, data T) error) Option {
	return func(cfg *Config) {
		if h == nil {
			cfg.unused = nil
			cfg.unusedType = nil
			return
		}
		cfg.unusedType = reflect.TypeFor[T]()
		cfg.unused = func(ctx context.Context, err error, data any) error {
			v, _ := data.(T)
			return h(ctx, err, v)
		}
	}
}
