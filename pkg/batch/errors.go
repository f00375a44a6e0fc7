package batch

import "errors"

var (
	ErrInvalidRun   = errors.New("invalid batch run")
	ErrRunExists    = errors.New("batch run already exists")
	ErrRunNotFound  = errors.New("batch run not found")
	ErrStoreNil     = errors.New("run store cannot be nil")
	ErrEmptyName    = errors.New("batch name cannot be empty")
	ErrItemRejected = errors.New("batch item rejected")
)
