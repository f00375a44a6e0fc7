package reservation

import "errors"

var (
	// ErrNotFound is returned when a reservation does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrAlreadyExists is returned when creating a reservation with a
	// duplicate ID.
	ErrAlreadyExists = errors.New("reservation already exists")
)
