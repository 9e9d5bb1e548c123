/*
Package batch implements bounded-concurrency batch processing for the
listening trainer's AI analysis pipeline. Given an ordered list of work
items and a worker function, it runs the items concurrently up to a
configurable ceiling, reports live progress, tolerates per-item failure,
supports cooperative cancellation, and aggregates results into success
and failure buckets.

Basic usage:

	limiter, _ := batch.NewLimiter(10)
	orch := batch.NewOrchestrator(limiter, log)

	results, err := orch.ProcessBatch(ctx, items, worker, batch.Options{
		OnProgress: func(s batch.Status) {
			fmt.Printf("%d/%d done\n", s.Completed+s.Failed, s.Total)
		},
		OnComplete: func(r batch.Results) {
			fmt.Printf("success=%d failed=%d\n", len(r.Success), len(r.Failed))
		},
	})

Cancellation is cooperative: CancelProcessing stops new items from being
admitted while items already running are allowed to finish, and their
outcomes are still recorded. Failed items can be retried as a fresh run
with Options.RetryFailed, which restricts the supplied items to the
identities that failed in the previous run.

A single Orchestrator handles one run at a time. Independent concurrent
runs need their own Orchestrator instances; they may share one Limiter
when cross-batch fairness is desired.
*/
package batch
