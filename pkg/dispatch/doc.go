// Package dispatch implements the notification trigger orchestration core.
//
// A trigger method is called by business logic (or by a sweep) when a domain
// occurrence should notify someone. Every method runs the same per-channel
// algorithm: atomically claim the (trigger, entity, channel) key in the
// delivery ledger, invoke the channel adapter — which only enqueues or hands
// off, never waits for final delivery — and record SENT or FAILED on the
// claimed entry. A lost claim means another invocation already owns the
// send, so the method logs and moves on.
//
// Trigger methods never return errors and recover their own panics: the
// caller is typically mid-transaction business logic that must not fail
// because a notification could not be queued. Retries are not scheduled
// here; the outbound queue retries transient failures, and FAILED ledger
// entries can be re-claimed operationally.
package dispatch
