package replay

import "time"

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithTTL sets how long a request id is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(g *inMemoryGuard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithMaxSize caps the number of remembered ids. The oldest id is evicted
// first. A value <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *inMemoryGuard) {
		if now != nil {
			g.now = now
		}
	}
}
