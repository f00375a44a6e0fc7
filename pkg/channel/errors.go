package channel

import "errors"

var (
	// ErrInvalidPhoneNumber is returned when a recipient number cannot be
	// normalized to international format
	ErrInvalidPhoneNumber = errors.New("invalid phone number")

	// ErrTemplateNotFound is returned when a template id has no entry in the
	// in-process template table
	ErrTemplateNotFound = errors.New("template not found")

	// ErrGatewayNil is returned when an adapter is constructed without its
	// transport gateway
	ErrGatewayNil = errors.New("gateway cannot be nil")

	// ErrEnqueuerNil is returned when the email adapter is constructed
	// without an enqueuer
	ErrEnqueuerNil = errors.New("enqueuer cannot be nil")

	// ErrStatusUnavailable is returned by adapters that cannot resolve a
	// delivery status for the given message id
	ErrStatusUnavailable = errors.New("delivery status unavailable")
)
