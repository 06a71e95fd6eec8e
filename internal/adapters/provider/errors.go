package provider

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/okian/netrisk/internal/adapters/camara"
)

// Sentinel errors for provider adapters.
var (
	ErrUnknownMode   = errors.New("unknown provider mode")
	ErrNotConfigured = errors.New("provider not configured")
)

// Fallback reasons reported in metrics, logs and spans.
const (
	ReasonDisabled      = "disabled"
	ReasonNotConfigured = "missing_credentials"
	ReasonTimeout       = "timeout"
	ReasonBreakerOpen   = "breaker_open"
	ReasonStatus        = "status"
	ReasonMalformed     = "malformed"
	ReasonTransport     = "transport"
)

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ReasonBreakerOpen
	case errors.Is(err, ErrNotConfigured), errors.Is(err, camara.ErrMissingCredentials):
		return ReasonNotConfigured
	case errors.Is(err, camara.ErrUnexpectedStatus):
		return ReasonStatus
	case errors.Is(err, camara.ErrMalformedReply):
		return ReasonMalformed
	default:
		return ReasonTransport
	}
}
