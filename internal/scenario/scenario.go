// Package scenario loads yaml descriptions of simulated task batches and
// turns them into flow tasks and aggregator options for the coflow CLI.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ib-77/coflow/pkg/flow"
	"github.com/ib-77/coflow/pkg/flow/core"
	"github.com/ib-77/coflow/pkg/flow/solo"
	"gopkg.in/yaml.v3"
)

var ErrNoTasks = errors.New("scenario has no tasks")

// Scenario is a batch of simulated tasks plus the policy to run them with.
// Unset policy fields keep the aggregator's own defaults.
type Scenario struct {
	Name               string     `yaml:"name"`
	Concurrency        string     `yaml:"concurrency,omitempty"`
	FailsWhenAnyFailed *bool      `yaml:"fails_when_any_failed,omitempty"`
	FailsWhenAllFailed *bool      `yaml:"fails_when_all_failed,omitempty"`
	Structured         bool       `yaml:"structured,omitempty"`
	Tasks              []TaskSpec `yaml:"tasks"`
}

// TaskSpec describes one simulated task: after Delay it fails with Error if
// set, otherwise succeeds with Value.
type TaskSpec struct {
	Name  string        `yaml:"name,omitempty"`
	Delay time.Duration `yaml:"delay,omitempty"`
	Value any           `yaml:"value,omitempty"`
	Error string        `yaml:"error,omitempty"`
}

// TaskError is the failure produced by a TaskSpec with an Error.
type TaskError struct {
	Task    string
	Message string
}

func (e *TaskError) Error() string {
	return e.Task + ": " + e.Message
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	for i := range s.Tasks {
		if s.Tasks[i].Name == "" {
			s.Tasks[i].Name = fmt.Sprintf("task-%d", i)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	if len(s.Tasks) == 0 {
		return ErrNoTasks
	}
	for i, t := range s.Tasks {
		if t.Delay < 0 {
			return fmt.Errorf("task %d (%s): negative delay %s", i, t.Name, t.Delay)
		}
	}
	if _, err := ParseConcurrency(s.Concurrency); err != nil {
		return err
	}
	return nil
}

// ParseConcurrency accepts "parallel"/"true" (or empty), "serial"/"false",
// or a positive slot count.
func ParseConcurrency(v string) (core.Concurrency, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "parallel", "true":
		return core.Parallel(), nil
	case "serial", "false":
		return core.Serial(), nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return core.Concurrency{}, fmt.Errorf("invalid concurrency %q: %w", v, err)
	}
	c := core.Bounded(n)
	if err := c.Validate(); err != nil {
		return core.Concurrency{}, err
	}
	return c, nil
}

// Options converts the scenario policy into aggregator options.
func (s *Scenario) Options() ([]core.Option, error) {
	opts := make([]core.Option, 0, 4)

	if s.Concurrency != "" {
		c, err := ParseConcurrency(s.Concurrency)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithConcurrency(c))
	}
	if s.FailsWhenAnyFailed != nil {
		opts = append(opts, core.WithFailsWhenAnyFailed(*s.FailsWhenAnyFailed))
	}
	if s.FailsWhenAllFailed != nil {
		opts = append(opts, core.WithFailsWhenAllFailed(*s.FailsWhenAllFailed))
	}
	if s.Structured {
		opts = append(opts, core.WithStructured(true))
	}
	return opts, nil
}

// Build returns one task per TaskSpec, in order.
func (s *Scenario) Build() []flow.Task[any] {
	tasks := make([]flow.Task[any], len(s.Tasks))
	for i, t := range s.Tasks {
		tasks[i] = t.Task()
	}
	return tasks
}

func (t TaskSpec) Task() flow.Task[any] {
	if t.Error != "" {
		return solo.AfterFail[any](t.Delay, &TaskError{Task: t.Name, Message: t.Error})
	}
	if t.Delay == 0 {
		return solo.Succeed(t.Value)
	}
	return solo.After(t.Delay, t.Value)
}

// Names returns the task names in order.
func (s *Scenario) Names() []string {
	names := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		names[i] = t.Name
	}
	return names
}

