package queue

import "errors"

// Sentinel errors for enqueue.
var (
	ErrStopped      = errors.New("audit queue stopped")
	ErrBackpressure = errors.New("audit queue full")
)
