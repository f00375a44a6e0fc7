package push

import "errors"

var (
	// ErrTokenNotFound is returned when a token value is unknown
	ErrTokenNotFound = errors.New("device token not found")

	// ErrInvalidToken is returned when a token record is missing required fields
	ErrInvalidToken = errors.New("invalid device token")

	// ErrProviderNotConfigured is returned by the fanout when a token names a
	// provider with no registered implementation
	ErrProviderNotConfigured = errors.New("push provider not configured")

	// ErrTokenRejected is wrapped by Provider implementations when the
	// provider reports the token as permanently invalid (FCM unregistered,
	// APNs bad device token). The fanout deactivates such tokens.
	ErrTokenRejected = errors.New("push token rejected by provider")

	// ErrStoreNil is returned when a component is constructed without a token store
	ErrStoreNil = errors.New("token store cannot be nil")

	// ErrLedgerNil is returned when the fanout is constructed without a ledger
	ErrLedgerNil = errors.New("ledger cannot be nil")
)
