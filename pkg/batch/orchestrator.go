package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

var (
	// ErrNilWorker is reported when ProcessBatch is called without a
	// worker function. This is a batch-level fault, not an item failure.
	ErrNilWorker = errors.New("no worker function supplied")

	// ErrRunInFlight is reported when ProcessBatch is called while a
	// previous run on the same orchestrator has not finished.
	ErrRunInFlight = errors.New("a batch run is already in flight")
)

// Options configures one ProcessBatch invocation. All callbacks are
// optional. OnProgress and OnComplete are invoked synchronously from
// the run's goroutines and must not call back into the orchestrator.
type Options struct {
	// OnProgress receives a fresh status snapshot on every item state
	// transition, delivered in transition order with coherent counts.
	OnProgress func(Status)

	// OnComplete receives the aggregated results once the run finishes
	// or a cancelled run has drained. Per-item failures still complete
	// the batch; OnComplete fires even when every item failed.
	OnComplete func(Results)

	// OnError receives batch-level faults only: invalid configuration
	// or an unexpected fault in the dispatch loop itself.
	OnError func(error)

	// RetryFailed restricts the supplied items to the identities that
	// failed in this orchestrator's most recent run.
	RetryFailed bool
}

// Orchestrator runs whole batches against a worker function with
// bounded concurrency, live progress, cooperative cancellation and
// aggregated results. One orchestrator handles one run at a time.
type Orchestrator struct {
	limiter *Limiter
	log     logger.Logger

	mu         sync.Mutex
	running    bool
	token      *Token
	current    *run
	lastStatus Status
	lastResult *Results
	lastErr    error
	progress   float64
	lastFailed map[string]struct{}
}

// run holds the state of one ProcessBatch invocation. A fresh run is
// created per invocation and discarded once its results are consumed.
type run struct {
	agg  *aggregator
	opts Options

	// emitMu serializes state transitions with their progress
	// callbacks so observers never see counts out of order.
	emitMu sync.Mutex
}

func (r *run) transition(mutate func(*aggregator) Status) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	status := mutate(r.agg)
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(status)
	}
}

// NewOrchestrator creates an orchestrator drawing capacity from the
// given limiter.
func NewOrchestrator(limiter *Limiter, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		limiter: limiter,
		log:     log,
	}
}

// ProcessBatch runs every item through the worker, admitting items in
// input order and never exceeding the limiter's ceiling. It returns
// once all admitted items reached a terminal state, which for a
// cancelled run means after the in-flight items drained.
//
// An empty item list is a valid no-op that completes immediately with
// empty results. Per-item worker errors are recorded and never abort
// the batch; only batch-level faults produce a non-nil error.
func (o *Orchestrator) ProcessBatch(ctx context.Context, items []Item, worker Worker, opts Options) (Results, error) {
	if worker == nil {
		return Results{}, o.fault(ErrNilWorker, opts)
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Results{}, o.fault(ErrRunInFlight, opts)
	}
	if opts.RetryFailed {
		items = filterByIdentity(items, o.lastFailed)
	}
	token := NewToken()
	r := &run{agg: newAggregator(len(items)), opts: opts}
	o.running = true
	o.token = token
	o.current = r
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.current = nil
		o.mu.Unlock()
	}()

	o.log.WithFields(logger.Fields{
		"items":   len(items),
		"ceiling": o.limiter.Ceiling(),
		"retry":   opts.RetryFailed,
	}).Info("Starting batch run")

	// Initial snapshot so observers see the batch size before any
	// admission happens.
	if opts.OnProgress != nil {
		opts.OnProgress(r.agg.snapshot())
	}

	var wg sync.WaitGroup
	dispatchErr := o.dispatch(ctx, items, worker, token, r, &wg)
	wg.Wait()

	results := r.agg.results()
	status := r.agg.snapshot()

	o.mu.Lock()
	o.lastStatus = status
	o.lastResult = &results
	o.lastErr = dispatchErr
	o.progress = r.agg.progress()
	o.lastFailed = identitySet(results.Failed)
	o.mu.Unlock()

	if dispatchErr != nil {
		o.log.WithFields(logger.Fields{
			"error": dispatchErr,
		}).Error("Batch run aborted by dispatch fault")
		if opts.OnError != nil {
			opts.OnError(dispatchErr)
		}
		return results, dispatchErr
	}

	o.log.WithFields(logger.Fields{
		"completed": status.Completed,
		"failed":    status.Failed,
		"skipped":   status.Pending,
		"cancelled": token.Cancelled(),
	}).Info("Batch run finished")

	if opts.OnComplete != nil {
		opts.OnComplete(results)
	}
	return results, nil
}

// dispatch admits items in input order until the list is exhausted,
// the token is set, or the caller's context is done. Each admitted
// item runs on its own goroutine under a limiter permit; the loop
// never waits for an item to finish before admitting the next.
//
// A panic inside the loop itself (not inside a worker; runners catch
// those) is converted into a batch-level fault.
func (o *Orchestrator) dispatch(ctx context.Context, items []Item, worker Worker, token *Token, r *run, wg *sync.WaitGroup) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("dispatch fault: %v\n%s", p, debug.Stack())
		}
	}()

	// acquireCtx unblocks waiting Acquire calls when the run is
	// cancelled. Workers deliberately receive the caller's context
	// instead: cancellation gates admissions, it does not kill
	// in-flight calls.
	acquireCtx, stopAcquire := context.WithCancel(ctx)
	defer stopAcquire()
	go func() {
		select {
		case <-token.Done():
			stopAcquire()
		case <-acquireCtx.Done():
		}
	}()

	for _, item := range items {
		if token.Cancelled() || ctx.Err() != nil {
			o.log.WithFields(logger.Fields{
				"item": item.ID,
			}).Debug("Cancellation observed, halting admission")
			return nil
		}

		permit, acquireErr := o.limiter.Acquire(acquireCtx)
		if acquireErr != nil {
			// Woken up by cancellation while waiting for a slot.
			return nil
		}

		// A freed slot can win the race against cancellation wake-up;
		// re-check the token so nothing goes Pending -> Active after a
		// cancel.
		if token.Cancelled() || ctx.Err() != nil {
			permit.Release()
			return nil
		}

		wg.Add(1)
		tr := &runner{item: item, worker: worker}
		go func() {
			defer wg.Done()
			tr.execute(ctx, permit, r)
		}()
	}

	return nil
}

// CancelProcessing sets the current run's cancellation token. Pending
// items stay unstarted and are excluded from the final results;
// already-active items finish naturally. Calling it with no run in
// flight has no effect.
func (o *Orchestrator) CancelProcessing() {
	o.mu.Lock()
	token := o.token
	o.mu.Unlock()

	if token != nil {
		o.log.Info("Batch cancellation requested")
		token.Cancel()
	}
}

// ResetState clears the stored results, error and progress of the last
// run so a fresh ProcessBatch starts from a clean slate. It does not
// affect a run currently in flight, and it keeps the failed identity
// set so a retry remains possible after a reset.
func (o *Orchestrator) ResetState() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lastResult = nil
	o.lastErr = nil
	o.progress = 0
	o.lastStatus = Status{}
}

// Status returns the item-count view of the current run, or of the
// last finished run when nothing is in flight. Total is the batch
// size, not the limiter ceiling.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		return o.current.agg.snapshot()
	}
	return o.lastStatus
}

// Progress returns the terminal fraction (completed+failed)/total of
// the current run, or of the last finished run, in [0,1]. It only ever
// increases within a run.
func (o *Orchestrator) Progress() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		return o.current.agg.progress()
	}
	return o.progress
}

// LastResults returns the stored results of the most recent finished
// run, if any.
func (o *Orchestrator) LastResults() (Results, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.lastResult == nil {
		return Results{}, false
	}
	return *o.lastResult, true
}

// LastError returns the batch-level fault of the most recent run, if
// any. Per-item failures never surface here.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) fault(err error, opts Options) error {
	o.log.WithFields(logger.Fields{
		"error": err,
	}).Error("Batch-level fault")

	o.mu.Lock()
	if !o.running {
		o.lastErr = err
	}
	o.mu.Unlock()

	if opts.OnError != nil {
		opts.OnError(err)
	}
	return err
}

func filterByIdentity(items []Item, wanted map[string]struct{}) []Item {
	if len(wanted) == 0 {
		return nil
	}

	filtered := make([]Item, 0, len(wanted))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func identitySet(failures []Failure) map[string]struct{} {
	set := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		set[f.Item.ID] = struct{}{}
	}
	return set
}
