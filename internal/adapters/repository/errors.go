package repository

import "errors"

// Sentinel errors for audit stores.
var (
	ErrClosed          = errors.New("audit log closed")
	ErrInvalidRecord   = errors.New("invalid audit record")
	ErrDuplicateRecord = errors.New("duplicate audit record")
	ErrCorruptLog      = errors.New("audit log corrupt")
)
