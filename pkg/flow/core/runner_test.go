package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ib-77/coflow/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepTask(d time.Duration, v int, inflight, peak *atomic.Int64) flow.Task[int] {
	return func(ctx context.Context) (int, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inflight.Add(-1)
		time.Sleep(d)
		return v, nil
	}
}

func TestExecute_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	called := false
	Execute[int](context.Background(), nil, Parallel(), func(int, flow.Result[int]) { called = true })
	Execute(context.Background(), []flow.Task[int]{}, Serial(), func(int, flow.Result[int]) { called = true })

	assert.False(t, called)
}

func TestExecute_SerialStartsAfterReport(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	reported := make([]int, 0)
	started := make([]int, 0)

	tasks := make([]flow.Task[int], 4)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			mu.Lock()
			// every earlier task must already be reported
			started = append(started, len(reported))
			mu.Unlock()
			time.Sleep(time.Duration(4-i) * 5 * time.Millisecond)
			return i, nil
		}
	}

	Execute(context.Background(), tasks, Serial(), func(index int, r flow.Result[int]) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, index)
	})

	if diff := cmp.Diff([]int{0, 1, 2, 3}, reported); diff != "" {
		t.Errorf("serial completion order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, started); diff != "" {
		t.Errorf("serial start order mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_ParallelReportsInFinishOrder(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int64
	delays := []int{50, 100, 20, 10}
	tasks := make([]flow.Task[int], len(delays))
	for i, d := range delays {
		tasks[i] = sleepTask(time.Duration(d)*time.Millisecond, d, &inflight, &peak)
	}

	order := make([]int, 0, len(tasks))
	values := make([]int, len(tasks))
	start := time.Now()
	Execute(context.Background(), tasks, Parallel(), func(index int, r flow.Result[int]) {
		order = append(order, index)
		values[index] = r.Result()
	})
	elapsed := time.Since(start)

	assert.Equal(t, []int{3, 2, 0, 1}, order)
	assert.Equal(t, delays, values)
	assert.EqualValues(t, len(tasks), peak.Load())
	assert.Less(t, elapsed, 190*time.Millisecond)
}

func TestExecute_BoundedPool(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int64
	delays := []int{50, 100, 20, 10}
	tasks := make([]flow.Task[int], len(delays))
	for i, d := range delays {
		tasks[i] = sleepTask(time.Duration(d)*time.Millisecond, d, &inflight, &peak)
	}

	order := make([]int, 0, len(tasks))
	Execute(context.Background(), tasks, Bounded(2), func(index int, r flow.Result[int]) {
		order = append(order, index)
	})

	// slot A: 0 (0-50ms), 2 (50-70ms), 3 (70-80ms); slot B: 1 (0-100ms)
	assert.Equal(t, []int{0, 2, 3, 1}, order)
	assert.EqualValues(t, 2, peak.Load())
}

func TestExecute_BoundedWallClock(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int64
	const d = 30 * time.Millisecond
	tasks := make([]flow.Task[int], 5)
	for i := range tasks {
		tasks[i] = sleepTask(d, i, &inflight, &peak)
	}

	var calls atomic.Int64
	seen := make(map[int]int)
	start := time.Now()
	Execute(context.Background(), tasks, Bounded(2), func(index int, r flow.Result[int]) {
		calls.Add(1)
		seen[index]++
	})
	elapsed := time.Since(start)

	// ceil(5/2) rounds
	assert.GreaterOrEqual(t, elapsed, 3*d-5*time.Millisecond)
	assert.Less(t, elapsed, 3*d+120*time.Millisecond)
	assert.EqualValues(t, 2, peak.Load())
	assert.EqualValues(t, 5, calls.Load())
	for i := range tasks {
		assert.Equal(t, 1, seen[i], "index %d", i)
	}
}

func TestExecute_CapAboveCountRunsInParallel(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int64
	tasks := make([]flow.Task[int], 3)
	for i := range tasks {
		tasks[i] = sleepTask(20*time.Millisecond, i, &inflight, &peak)
	}

	Execute(context.Background(), tasks, Bounded(10), func(int, flow.Result[int]) {})

	assert.EqualValues(t, 3, peak.Load())
}

func TestExecute_CapturesFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tasks := []flow.Task[string]{
		func(context.Context) (string, error) { return "", boom },
		nil,
		func(context.Context) (string, error) { panic("kaboom") },
		func(context.Context) (string, error) { return "ok", nil },
	}

	results := make([]flow.Result[string], len(tasks))
	Execute(context.Background(), tasks, Bounded(2), func(index int, r flow.Result[string]) {
		results[index] = r
	})

	require.True(t, results[0].IsFailure())
	assert.ErrorIs(t, results[0].Err(), boom)
	assert.ErrorIs(t, results[1].Err(), flow.ErrNilTask)
	assert.ErrorIs(t, results[2].Err(), flow.ErrTaskPanic)
	assert.Contains(t, results[2].Err().Error(), "kaboom")
	require.True(t, results[3].IsSuccess())
	assert.Equal(t, "ok", results[3].Result())
}

func TestExecute_PassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "exec")

	tasks := []flow.Task[string]{
		func(ctx context.Context) (string, error) { return ctx.Value(key{}).(string), nil },
		func(ctx context.Context) (string, error) { return ctx.Value(key{}).(string), nil },
	}

	got := make([]string, 2)
	Execute(ctx, tasks, Serial(), func(index int, r flow.Result[string]) { got[index] = r.Result() })

	assert.Equal(t, []string{"exec", "exec"}, got)
}

func TestCompletions_StreamsEveryTask(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tasks := []flow.Task[int]{
		func(context.Context) (int, error) { time.Sleep(30 * time.Millisecond); return 0, nil },
		func(context.Context) (int, error) { return 1, nil },
	}

	completions := FromChanMany(ctx, Completions(ctx, tasks, Parallel()))

	require.Len(t, completions, 2)
	assert.Equal(t, 1, completions[0].Index)
	assert.Equal(t, 0, completions[1].Index)
	assert.Equal(t, 1, completions[0].Result.Result())
}
