package batch

import "sync"

// aggregator accumulates per-item outcomes for one run. Its invariant
// is the linchpin of the whole subsystem: at every point
// pending + active + completed + failed == total, and no item is
// counted twice.
type aggregator struct {
	mu sync.Mutex

	total     int
	pending   int
	active    int
	completed int
	failed    int

	success  []Success
	failures []Failure
}

func newAggregator(total int) *aggregator {
	return &aggregator{
		total:   total,
		pending: total,
	}
}

// markActive moves one item Pending -> Active and returns the snapshot
// taken under the same lock as the transition.
func (a *aggregator) markActive() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending--
	a.active++
	return a.snapshotLocked()
}

// markCompleted moves one item Active -> Completed, recording its
// result in completion order.
func (a *aggregator) markCompleted(item Item, result any) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active--
	a.completed++
	a.success = append(a.success, Success{Item: item, Result: result})
	return a.snapshotLocked()
}

// markFailed moves one item Active -> Failed, recording the error
// message in completion order.
func (a *aggregator) markFailed(item Item, err error) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active--
	a.failed++
	a.failures = append(a.failures, Failure{Item: item, Error: err.Error()})
	return a.snapshotLocked()
}

func (a *aggregator) snapshot() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *aggregator) snapshotLocked() Status {
	return Status{
		Total:     a.total,
		Active:    a.active,
		Pending:   a.pending,
		Completed: a.completed,
		Failed:    a.failed,
	}
}

// results returns a copy of the accumulated buckets so the caller can
// hand them out without exposing internal slices to later mutation.
func (a *aggregator) results() Results {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Results{
		Success: make([]Success, len(a.success)),
		Failed:  make([]Failure, len(a.failures)),
	}
	copy(r.Success, a.success)
	copy(r.Failed, a.failures)
	return r
}

// progress returns the terminal fraction (completed+failed)/total in
// [0,1]. An empty run counts as fully progressed.
func (a *aggregator) progress() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.total == 0 {
		return 1
	}
	return float64(a.completed+a.failed) / float64(a.total)
}
