// Package ledger implements the append-only delivery ledger used for
// notification deduplication and audit.
//
// Every notification attempt exists as exactly one Entry moving
// QUEUED -> SENT or QUEUED -> FAILED. The Claim operation is a single
// conditional insert-if-absent on the (type, entity type, entity id,
// channel) key, which closes the check-then-insert race window: under
// concurrent invocations of the same trigger for the same entity, exactly
// one claim wins and the losers return early.
//
// FAILED entries do not block a new claim. That keeps operational
// re-delivery of failed notifications possible while a second SENT row for
// the same key stays impossible.
package ledger
