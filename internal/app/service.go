// Package service implements the fraud evaluation pipeline behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/adapters/mq/queue"
	"github.com/okian/netrisk/internal/adapters/mq/worker"
	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/adapters/repository"
	"github.com/okian/netrisk/internal/domain/explain"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/internal/domain/phone"
	"github.com/okian/netrisk/internal/domain/replay"
	"github.com/okian/netrisk/internal/domain/scoring"
	"github.com/okian/netrisk/internal/gateway"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

const (
	defaultQueueSize    = 1024
	defaultAuditTimeout = 5 * time.Second
	alertTimeout        = 5 * time.Second
)

// Collector gathers the network signal bundle for a transaction.
type Collector interface {
	Collect(ctx context.Context, tx model.Transaction) model.NetworkSignals
}

// Scorer turns a probability and signals into a scoring breakdown.
type Scorer interface {
	Score(probability float64, signals model.NetworkSignals, tx model.Transaction) model.ScoringBreakdown
}

// Service runs evaluations and owns the audit writer.
type Service struct {
	mu sync.RWMutex

	gateway  Collector
	engine   Scorer
	store    repository.Store
	guard    replay.Guard
	notifier notify.Notifier

	queue   *queue.InMemoryQueue
	writer  *worker.Writer
	builder *explain.Builder
	cron    *cron.Cron

	countryCode     string
	historyLimit    int
	queueSize       int
	auditTimeout    time.Duration
	summarySchedule string
	providerStatus  func() []provider.Status
	now             func() time.Time
	nextID          func() string

	started bool
	cancel  context.CancelFunc
	alerts  sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Components not supplied through options are
// created with defaults on Start.
func New(opts ...Option) *Service {
	s := &Service{
		countryCode:  phone.DefaultCountryCode,
		historyLimit: repository.DefaultLimit,
		queueSize:    defaultQueueSize,
		auditTimeout: defaultAuditTimeout,
		now:          time.Now,
		nextID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates missing components and starts the audit writer and the
// summary schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.gateway == nil {
		set := provider.NewSet(camara.NewClient(), provider.SetConfig{
			Modes: map[model.SignalKind]provider.Mode{
				model.KindSimSwap:      provider.ModeSimulated,
				model.KindLocation:     provider.ModeSimulated,
				model.KindRoaming:      provider.ModeSimulated,
				model.KindConnectivity: provider.ModeSimulated,
			},
		})
		s.gateway = gateway.FromSet(set)
		if s.providerStatus == nil {
			s.providerStatus = set.Statuses
		}
	}
	if s.engine == nil {
		e, err := scoring.NewEngine()
		if err != nil {
			return fmt.Errorf("build scoring engine: %w", err)
		}
		s.engine = e
	}
	if s.store == nil {
		s.store = repository.NewMemoryLog()
	}
	if s.guard == nil {
		s.guard = replay.NewInMemoryGuard()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.writer = worker.NewWriter(s.queue, s.store,
		worker.WithName("audit-writer"),
		worker.WithAppendTimeout(s.auditTimeout),
	)
	go s.writer.Run(runCtx)
	s.builder = explain.NewBuilder(s.writer,
		explain.WithClock(s.now),
		explain.WithIDGenerator(s.nextID),
	)

	if s.summarySchedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.summarySchedule, func() {
			if err := s.RunSummary(runCtx); err != nil {
				s.logger.Warn(runCtx, "daily summary failed", logger.Error(err))
			}
		}); err != nil {
			cancel()
			return fmt.Errorf("schedule summary %q: %w", s.summarySchedule, err)
		}
		s.cron.Start()
	}

	s.cancel = cancel
	s.started = true
	s.logger.Info(ctx, "fraud service started",
		logger.Int("queueSize", s.queueSize),
		logger.Duration("auditTimeout", s.auditTimeout),
		logger.String("summarySchedule", s.summarySchedule),
	)
	return nil
}

// Stop drains the audit queue, waits for in-flight alerts and closes the
// store and notifier.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping fraud service...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	err := s.writer.Shutdown(ctx)
	s.alerts.Wait()
	s.cancel()

	if cerr := s.notifier.Close(); cerr != nil {
		s.logger.Warn(ctx, "error closing notifier", logger.Error(cerr))
	}
	if cerr := s.store.Close(); cerr != nil {
		s.logger.Warn(ctx, "error closing audit store", logger.Error(cerr))
	}

	s.started = false
	s.logger.Info(ctx, "fraud service stopped")
	return err
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// History returns audit records for identifier, newest first. A
// non-positive limit uses the default.
func (s *Service) History(ctx context.Context, identifier string, from, to time.Time, limit int) ([]model.AuditRecord, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if identifier == "" {
		return nil, invalid("identifier", "is required")
	}
	id, err := phone.Normalize(identifier, s.countryCode)
	if err != nil {
		return nil, invalid("identifier", err.Error())
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, invalid("to", "must not be before from")
	}
	return s.store.History(ctx, id, repository.Query{From: from, To: to, Limit: limit})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       started,
		"queueCapacity": s.queueSize,
		"countryCode":   s.countryCode,
	}
	if !started {
		return stats
	}

	queueLen := s.queue.Len()
	stats["queueLength"] = queueLen
	metrics.UpdateQueueSize(queueLen)
	stats["replayEntries"] = s.guard.Size()
	if s.providerStatus != nil {
		stats["providers"] = s.providerStatus()
	}

	audit, err := s.AuditStats(ctx, time.Time{})
	if err != nil {
		s.logger.Warn(ctx, "audit stats unavailable", logger.Error(err))
		stats["auditError"] = err.Error()
		return stats
	}
	stats["audit"] = audit
	return stats
}

// UpdateMetrics refreshes the queue and audit gauges.
func (s *Service) UpdateMetrics(ctx context.Context) {
	if !s.isStarted() {
		return
	}
	metrics.UpdateQueueSize(s.queue.Len())
	metrics.UpdateQueueCapacity(s.queueSize)
	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateAuditRecords(n)
	}
}
