package mailqueue

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrNoJobToClaim is returned by storages when no claimable job exists
	ErrNoJobToClaim = errors.New("no job available to claim")

	// ErrNoHandlers is returned when a worker is started without handlers
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrHandlerNotFound is returned when no handler is registered for a job name
	ErrHandlerNotFound = errors.New("no handler registered for job name")

	// ErrJobNotFound is returned when a job id does not exist
	ErrJobNotFound = errors.New("job not found")
)
