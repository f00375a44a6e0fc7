package sweep

import "errors"

var (
	// ErrInvalidJob is returned for a job with no name, handler or period
	ErrInvalidJob = errors.New("invalid sweep job")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("duplicate sweep job")

	// ErrNoJobs is returned when Start is called on an empty scheduler
	ErrNoJobs = errors.New("no sweep jobs registered")

	// ErrAlreadyStarted is returned when the scheduler is started twice or
	// mutated after start
	ErrAlreadyStarted = errors.New("scheduler already started")
)
