package dispatch

import "errors"

var (
	// ErrLedgerNil is returned when a dispatcher is constructed without a ledger
	ErrLedgerNil = errors.New("ledger cannot be nil")

	// ErrEnqueuerNil is returned when a dispatcher is constructed without an email enqueuer
	ErrEnqueuerNil = errors.New("email enqueuer cannot be nil")
)
