package service

import (
	"time"

	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/adapters/repository"
	"github.com/okian/netrisk/internal/domain/replay"
	"github.com/okian/netrisk/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGateway sets the signal collector.
func WithGateway(c Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.gateway = c
		}
	}
}

// WithEngine sets the scoring engine.
func WithEngine(e Scorer) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithStore sets the audit store. The service closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithReplayGuard sets the request id replay guard.
func WithReplayGuard(g replay.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithNotifier sets where high-risk alerts and summaries are published.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithCountryCode sets the prefix used for numbers without one.
func WithCountryCode(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.countryCode = code
		}
	}
}

// WithHistoryLimit caps the history read for anomaly detection.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithAuditQueueSize sets the capacity of the audit write queue.
func WithAuditQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithAuditTimeout bounds a single audit append.
func WithAuditTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.auditTimeout = d
		}
	}
}

// WithSummarySchedule sets the cron spec of the daily summary. Empty disables it.
func WithSummarySchedule(spec string) Option {
	return func(s *Service) {
		s.summarySchedule = spec
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides transaction and audit record id generation.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.nextID = next
		}
	}
}

// WithProviderStatus reports adapter modes and breaker states in stats.
func WithProviderStatus(fn func() []provider.Status) Option {
	return func(s *Service) {
		s.providerStatus = fn
	}
}
