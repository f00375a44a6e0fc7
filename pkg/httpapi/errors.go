package httpapi

import "errors"

var (
	ErrLedgerNil        = errors.New("ledger cannot be nil")
	ErrRegistryNil      = errors.New("device registry cannot be nil")
	ErrFeedNil          = errors.New("feed manager cannot be nil")
	ErrSecretEmpty      = errors.New("callback secret cannot be empty")
	ErrMissingSignature = errors.New("missing callback signature")
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrSignatureExpired = errors.New("callback signature expired")
)
