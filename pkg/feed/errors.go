package feed

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidNotification is returned when required fields are missing
	ErrInvalidNotification = errors.New("invalid notification")

	// ErrStorageNil is returned when a manager is constructed without storage
	ErrStorageNil = errors.New("storage cannot be nil")
)
