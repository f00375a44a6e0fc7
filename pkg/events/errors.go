package events

import "errors"

var (
	ErrDispatcherNil  = errors.New("dispatcher cannot be nil")
	ErrStoreNil       = errors.New("reservation store cannot be nil")
	ErrHandlerNil     = errors.New("handler cannot be nil")
	ErrNoBrokers      = errors.New("at least one broker address is required")
	ErrEmptyTopic     = errors.New("topic cannot be empty")
	ErrInvalidPayload = errors.New("invalid event payload")
)
