package service

import (
	"errors"

	"github.com/okian/netrisk/internal/domain/explain"
)

var (
	// ErrInvalidRequest is wrapped by every ValidationError.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDuplicateRequest is returned for a request id seen within the replay window.
	ErrDuplicateRequest = errors.New("duplicate request")
	// ErrAuditWrite marks an evaluation whose audit record could not be stored.
	ErrAuditWrite = explain.ErrAuditWrite
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Unwrap lets errors.Is match ErrInvalidRequest.
func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
