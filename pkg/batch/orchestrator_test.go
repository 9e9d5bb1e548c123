package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Output: io.Discard})
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("item-%d", i), Payload: i}
	}
	return items
}

func newTestOrchestrator(t *testing.T, ceiling int) *Orchestrator {
	t.Helper()
	limiter, err := NewLimiter(ceiling)
	require.NoError(t, err)
	return NewOrchestrator(limiter, testLogger())
}

func successIDs(r Results) []string {
	ids := make([]string, 0, len(r.Success))
	for _, s := range r.Success {
		ids = append(ids, s.Item.ID)
	}
	sort.Strings(ids)
	return ids
}

func failedIDs(r Results) []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.Item.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestProcessBatchAllSucceed(t *testing.T) {
	orch := newTestOrchestrator(t, 4)

	worker := func(ctx context.Context, item Item) (any, error) {
		return item.Payload.(int) * 2, nil
	}

	var completions atomic.Int32
	results, err := orch.ProcessBatch(context.Background(), makeItems(8), worker, Options{
		OnComplete: func(Results) { completions.Add(1) },
	})

	require.NoError(t, err)
	assert.Len(t, results.Success, 8)
	assert.Empty(t, results.Failed)
	assert.Equal(t, int32(1), completions.Load())
	assert.Equal(t, 1.0, orch.Progress())
}

func TestProcessBatchMixedOutcomes(t *testing.T) {
	// 5 items, failures at indices 2 and 4, ceiling 2.
	orch := newTestOrchestrator(t, 2)

	worker := func(ctx context.Context, item Item) (any, error) {
		idx := item.Payload.(int)
		if idx == 2 || idx == 4 {
			return nil, errors.New("transient analysis error")
		}
		return "ok", nil
	}

	results, err := orch.ProcessBatch(context.Background(), makeItems(5), worker, Options{})
	require.NoError(t, err)

	assert.Len(t, results.Success, 3)
	assert.Len(t, results.Failed, 2)
	assert.Equal(t, []string{"item-2", "item-4"}, failedIDs(results))

	status := orch.Status()
	assert.Equal(t, 5, status.Completed+status.Failed)
	assert.Equal(t, 5, status.Total)
}

func TestProcessBatchEmptyList(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	var progressCalls atomic.Int32
	var completed atomic.Bool

	results, err := orch.ProcessBatch(context.Background(), nil, func(ctx context.Context, item Item) (any, error) {
		t.Error("worker must not run for an empty batch")
		return nil, nil
	}, Options{
		OnProgress: func(Status) { progressCalls.Add(1) },
		OnComplete: func(Results) { completed.Store(true) },
	})

	require.NoError(t, err)
	assert.Empty(t, results.Success)
	assert.Empty(t, results.Failed)
	assert.True(t, completed.Load())
	// Only the initial snapshot is permitted.
	assert.LessOrEqual(t, progressCalls.Load(), int32(1))
	assert.Equal(t, 1.0, orch.Progress())
}

func TestProcessBatchCountsAlwaysSum(t *testing.T) {
	orch := newTestOrchestrator(t, 3)

	worker := func(ctx context.Context, item Item) (any, error) {
		time.Sleep(5 * time.Millisecond)
		if item.Payload.(int)%3 == 0 {
			return nil, errors.New("boom")
		}
		return "ok", nil
	}

	var mu sync.Mutex
	var snapshots []Status

	_, err := orch.ProcessBatch(context.Background(), makeItems(10), worker, Options{
		OnProgress: func(s Status) {
			mu.Lock()
			snapshots = append(snapshots, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, snapshots)
	lastTerminal := 0
	for i, s := range snapshots {
		assert.Equal(t, s.Total, s.Pending+s.Active+s.Completed+s.Failed,
			"snapshot %d does not sum to total: %+v", i, s)
		assert.Equal(t, 10, s.Total)

		// Terminal counts never move backwards.
		terminal := s.Completed + s.Failed
		assert.GreaterOrEqual(t, terminal, lastTerminal,
			"snapshot %d went backwards: %+v", i, s)
		lastTerminal = terminal
	}

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, 10, final.Completed+final.Failed)
}

func TestProcessBatchActiveNeverExceedsCeiling(t *testing.T) {
	const ceiling = 2
	orch := newTestOrchestrator(t, ceiling)

	var current, peak atomic.Int32
	worker := func(ctx context.Context, item Item) (any, error) {
		c := current.Add(1)
		for {
			old := peak.Load()
			if c <= old || peak.CompareAndSwap(old, c) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		current.Add(-1)
		return "ok", nil
	}

	results, err := orch.ProcessBatch(context.Background(), makeItems(9), worker, Options{
		OnProgress: func(s Status) {
			assert.LessOrEqual(t, s.Active, ceiling)
		},
	})
	require.NoError(t, err)
	assert.Len(t, results.Success, 9)
	assert.LessOrEqual(t, peak.Load(), int32(ceiling))
}

func TestProcessBatchSerializesWithCeilingOfOne(t *testing.T) {
	orch := newTestOrchestrator(t, 1)

	const delay = 10 * time.Millisecond
	worker := func(ctx context.Context, item Item) (any, error) {
		time.Sleep(delay)
		return "ok", nil
	}

	start := time.Now()
	results, err := orch.ProcessBatch(context.Background(), makeItems(3), worker, Options{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, results.Success, 3)
	assert.GreaterOrEqual(t, elapsed, 3*delay,
		"three serialized 10ms items must take at least 30ms")
}

func TestProcessBatchCancellation(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	release := make(chan struct{})
	started := make(chan string, 6)
	worker := func(ctx context.Context, item Item) (any, error) {
		started <- item.ID
		<-release
		return "ok", nil
	}

	type outcome struct {
		results Results
		err     error
	}
	done := make(chan outcome)
	go func() {
		r, err := orch.ProcessBatch(context.Background(), makeItems(6), worker, Options{})
		done <- outcome{r, err}
	}()

	// Wait for the first two items to occupy both slots.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("workers never started")
		}
	}

	orch.CancelProcessing()
	close(release)

	var out outcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled batch never drained")
	}

	require.NoError(t, out.err, "cancellation is not an error")
	assert.Len(t, out.results.Success, 2, "only the in-flight items may finish")
	assert.Empty(t, out.results.Failed)

	// Nothing was admitted after the cancel.
	select {
	case id := <-started:
		t.Fatalf("item %s started after cancellation", id)
	default:
	}

	status := orch.Status()
	assert.Equal(t, 4, status.Pending, "unstarted items stay pending, not failed")
}

func TestProcessBatchRetryFailedSubset(t *testing.T) {
	orch := newTestOrchestrator(t, 2)
	items := makeItems(5)

	failing := func(ctx context.Context, item Item) (any, error) {
		idx := item.Payload.(int)
		if idx == 1 || idx == 3 {
			return nil, errors.New("rate limited")
		}
		return "ok", nil
	}

	first, err := orch.ProcessBatch(context.Background(), items, failing, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"item-1", "item-3"}, failedIDs(first))

	var dispatched []string
	var mu sync.Mutex
	succeeding := func(ctx context.Context, item Item) (any, error) {
		mu.Lock()
		dispatched = append(dispatched, item.ID)
		mu.Unlock()
		return "recovered", nil
	}

	// The caller supplies the full candidate list; the orchestrator
	// filters it down to its own last-known failed set.
	second, err := orch.ProcessBatch(context.Background(), items, succeeding, Options{RetryFailed: true})
	require.NoError(t, err)

	sort.Strings(dispatched)
	assert.Equal(t, []string{"item-1", "item-3"}, dispatched)
	assert.Equal(t, []string{"item-1", "item-3"}, successIDs(second))
	assert.Empty(t, second.Failed)

	// The first run's recorded results are untouched.
	assert.Equal(t, []string{"item-1", "item-3"}, failedIDs(first))
	assert.Len(t, first.Success, 3)
}

func TestProcessBatchRetryWithNoPriorFailures(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	worker := func(ctx context.Context, item Item) (any, error) {
		return "ok", nil
	}

	_, err := orch.ProcessBatch(context.Background(), makeItems(3), worker, Options{})
	require.NoError(t, err)

	results, err := orch.ProcessBatch(context.Background(), makeItems(3), worker, Options{RetryFailed: true})
	require.NoError(t, err)
	assert.Empty(t, results.Success)
	assert.Empty(t, results.Failed)
}

func TestProcessBatchNilWorker(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	var reported error
	_, err := orch.ProcessBatch(context.Background(), makeItems(2), nil, Options{
		OnError: func(e error) { reported = e },
	})

	assert.ErrorIs(t, err, ErrNilWorker)
	assert.ErrorIs(t, reported, ErrNilWorker)
	assert.ErrorIs(t, orch.LastError(), ErrNilWorker)
}

func TestProcessBatchRejectsConcurrentRun(t *testing.T) {
	orch := newTestOrchestrator(t, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	worker := func(ctx context.Context, item Item) (any, error) {
		started <- struct{}{}
		<-release
		return "ok", nil
	}

	done := make(chan error)
	go func() {
		_, err := orch.ProcessBatch(context.Background(), makeItems(1), worker, Options{})
		done <- err
	}()

	<-started

	_, err := orch.ProcessBatch(context.Background(), makeItems(1), worker, Options{})
	assert.ErrorIs(t, err, ErrRunInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestProcessBatchWorkerPanicIsIsolated(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	worker := func(ctx context.Context, item Item) (any, error) {
		if item.Payload.(int) == 1 {
			panic("analysis response decode blew up")
		}
		return "ok", nil
	}

	results, err := orch.ProcessBatch(context.Background(), makeItems(3), worker, Options{})
	require.NoError(t, err)
	assert.Len(t, results.Success, 2)
	require.Len(t, results.Failed, 1)
	assert.Contains(t, results.Failed[0].Error, "panic")
}

func TestResetState(t *testing.T) {
	orch := newTestOrchestrator(t, 2)

	worker := func(ctx context.Context, item Item) (any, error) {
		return "ok", nil
	}

	_, err := orch.ProcessBatch(context.Background(), makeItems(4), worker, Options{})
	require.NoError(t, err)

	_, ok := orch.LastResults()
	require.True(t, ok)
	require.Equal(t, 1.0, orch.Progress())

	orch.ResetState()

	_, ok = orch.LastResults()
	assert.False(t, ok)
	assert.NoError(t, orch.LastError())
	assert.Zero(t, orch.Progress())
	assert.Equal(t, Status{}, orch.Status())

	// A fresh run keeps independent accounting.
	results, err := orch.ProcessBatch(context.Background(), makeItems(2), worker, Options{})
	require.NoError(t, err)
	assert.Len(t, results.Success, 2)
	assert.Equal(t, 2, orch.Status().Total)
}

func TestProcessBatchSharedLimiter(t *testing.T) {
	limiter, err := NewLimiter(2)
	require.NoError(t, err)

	var current, peak atomic.Int32
	worker := func(ctx context.Context, item Item) (any, error) {
		c := current.Add(1)
		for {
			old := peak.Load()
			if c <= old || peak.CompareAndSwap(old, c) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return "ok", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orch := NewOrchestrator(limiter, testLogger())
			results, err := orch.ProcessBatch(context.Background(), makeItems(4), worker, Options{})
			assert.NoError(t, err)
			assert.Len(t, results.Success, 4)
		}()
	}
	wg.Wait()

	// Two orchestrators sharing one limiter still respect its ceiling.
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
