package ledger

import "errors"

var (
	// ErrEntryNotFound is returned when no ledger entry matches the query.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrInvalidEntry is returned when a claim is attempted with an
	// incomplete key.
	ErrInvalidEntry = errors.New("ledger entry missing type, entity or channel")
)
