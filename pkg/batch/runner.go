package batch

import (
	"context"
	"fmt"
	"sync/atomic"
)

// runner executes exactly one item under a limiter permit and reports
// its terminal outcome exactly once. Worker errors and panics are
// converted into Failed outcomes; nothing escapes into the dispatch
// loop, so one bad item can never abort the rest of the batch.
type runner struct {
	item     Item
	worker   Worker
	reported atomic.Bool
}

// execute owns the permit for the duration of the worker invocation.
// The deferred Release guarantees the slot is returned on every exit
// path, including panics inside the worker.
func (tr *runner) execute(ctx context.Context, permit *Permit, r *run) {
	defer permit.Release()

	r.transition(func(a *aggregator) Status {
		return a.markActive()
	})

	result, err := tr.invoke(ctx)

	// Single-report guard: the aggregator assumes one terminal
	// transition per item.
	if tr.reported.Swap(true) {
		return
	}

	if err != nil {
		r.transition(func(a *aggregator) Status {
			return a.markFailed(tr.item, err)
		})
		return
	}

	r.transition(func(a *aggregator) Status {
		return a.markCompleted(tr.item, result)
	})
}

func (tr *runner) invoke(ctx context.Context) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panic on item %s: %v", tr.item.ID, p)
		}
	}()

	return tr.worker(ctx, tr.item)
}
