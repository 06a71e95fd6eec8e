package provider

import "time"

// Default adapter configuration.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second
	DefaultBreakerHalfOpen = 1
	DefaultBreakerInterval = time.Minute
)

type settings struct {
	mode            Mode
	timeout         time.Duration
	breakerFailures uint32
	breakerCooldown time.Duration
	breakerInterval time.Duration
}

// Option applies a configuration option to an Adapter.
type Option func(*settings)

// WithMode selects live or simulated operation.
func WithMode(m Mode) Option {
	return func(s *settings) {
		if m != "" {
			s.mode = m
		}
	}
}

// WithTimeout bounds the single live attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBreaker sets the consecutive failures that open the breaker and how
// long it stays open. failures == 0 disables tripping.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(s *settings) {
		s.breakerFailures = failures
		if cooldown > 0 {
			s.breakerCooldown = cooldown
		}
	}
}
