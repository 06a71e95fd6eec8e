package repository

import "time"

type options struct {
	fsync                 bool
	migrate               bool
	metricsUpdateInterval time.Duration
}

func defaultOptions() options {
	return options{fsync: true, migrate: true, metricsUpdateInterval: 30 * time.Second}
}

// Option configures a file or Postgres audit log.
type Option func(*options)

// WithFsync controls whether the file log syncs after every append.
func WithFsync(enabled bool) Option {
	return func(o *options) { o.fsync = enabled }
}

// WithMigrations controls whether the Postgres log applies its schema on open.
func WithMigrations(enabled bool) Option {
	return func(o *options) { o.migrate = enabled }
}

// WithMetricsUpdateInterval sets how often the Postgres log refreshes the
// record count gauge.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}
