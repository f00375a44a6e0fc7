// Package batch executes one-off bulk notification jobs, such as announcing
// certificates to every attendee of a finished event.
//
// Every execution is recorded as a Run in a RunStore before any item is
// processed: a process that dies mid-batch leaves a run in StatusRunning,
// which is the operator's signal to re-run it. Re-running is safe because
// each individual dispatch is deduplicated by the delivery ledger.
//
//	runner, err := batch.NewRunner(store, batch.WithConcurrency(16))
//	if err != nil {
//		return err
//	}
//	run, err := batch.DispatchCertificates(ctx, runner, dispatcher, issues)
//
// Item failures never abort a batch; they are counted in the run record and
// the batch finishes StatusCompleted. Only context cancellation marks a run
// StatusFailed.
package batch
