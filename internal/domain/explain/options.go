package explain

import "time"

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(next func() string) Option {
	return func(b *Builder) {
		if next != nil {
			b.nextID = next
		}
	}
}

// WithSpikeFactor sets the multiple of the historical mean amount above
// which an amount spike is reported.
func WithSpikeFactor(f float64) Option {
	return func(b *Builder) {
		if f > 1 {
			b.spikeFactor = f
		}
	}
}

// WithVelocity sets the window and minimum number of prior transactions
// reported as high velocity.
func WithVelocity(window time.Duration, count int) Option {
	return func(b *Builder) {
		if window > 0 && count > 0 {
			b.velocityWindow = window
			b.velocityCount = count
		}
	}
}
