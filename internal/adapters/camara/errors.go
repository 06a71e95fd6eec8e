package camara

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Client.
var (
	ErrMissingCredentials = errors.New("camara: api key not configured")
	ErrUnexpectedStatus   = errors.New("camara: unexpected status")
	ErrMalformedReply     = errors.New("camara: malformed reply")
	ErrTransport          = errors.New("camara: transport failure")
)

// StatusError carries the HTTP status of a rejected call.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("camara: %s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
