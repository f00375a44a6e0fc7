// Package mailqueue implements the outbound transactional email work queue.
//
// The dispatch layer never waits for final delivery: it enqueues a typed job
// (one payload type per trigger kind) and treats a successful insert as a
// successful send from the ledger's point of view. A separate Worker claims
// pending jobs, renders them into emails, and delivers them through an
// email.EmailSender, retrying transient failures with linear backoff.
//
// Storage is an interface with in-memory and PostgreSQL implementations.
// The Postgres claim uses FOR UPDATE SKIP LOCKED so several workers can
// drain the same table without stepping on each other.
package mailqueue
