package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/adapters/repository"
	app "github.com/okian/netrisk/internal/app"
	"github.com/okian/netrisk/internal/config"
	"github.com/okian/netrisk/internal/domain/countryrisk"
	"github.com/okian/netrisk/internal/domain/replay"
	"github.com/okian/netrisk/internal/domain/scoring"
	"github.com/okian/netrisk/internal/gateway"
	"github.com/okian/netrisk/internal/health"
	"github.com/okian/netrisk/pkg/logger"
)

const (
	dbConnectAttempts = 5
	dbMaxOpenConns    = 10
)

// components is the wired process graph.
type components struct {
	svc       *app.Service
	health    *health.Registry
	refresher *countryrisk.Refresher
	closers   []func() error
}

// close releases what the service does not own. Call after svc.Stop.
func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// build wires every component from cfg. Nothing is started.
func build(ctx context.Context, cfg *config.Config) (*components, error) {
	log := logger.Get().Named("wire")
	c := &components{health: health.NewRegistry(cfg.HealthTimeout())}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		c.closers = append(c.closers, rdb.Close)
		c.health.Register("redis", health.Ping("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	list, source := countryList(cfg, rdb)
	c.refresher = countryrisk.NewRefresher(list, source, cfg.CountryRefresh())
	if err := c.refresher.Refresh(ctx); err != nil {
		log.Warn(ctx, "initial country list load failed; using built-in list", logger.Error(err))
	}

	engine, err := scoring.NewEngine(
		scoring.WithWeights(cfg.Weights),
		scoring.WithThresholds(cfg.Thresholds),
		scoring.WithRulePoints(cfg.RulePoints),
		scoring.WithExtraRules(cfg.ExtraRules...),
		scoring.WithCountryClassifier(list),
	)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	modes, err := cfg.Modes()
	if err != nil {
		c.close()
		return nil, err
	}
	client := camara.NewClient(
		camara.WithBaseURL(cfg.ProviderBaseURL),
		camara.WithAPIHost(cfg.RapidAPIHost),
		camara.WithAPIKey(cfg.RapidAPIKey),
	)
	set := provider.NewSet(client, provider.SetConfig{
		Modes:       modes,
		HomeNetwork: cfg.HomeNetwork,
		Options: []provider.Option{
			provider.WithTimeout(cfg.ProviderTimeout()),
			provider.WithBreaker(uint32(cfg.BreakerFailures), cfg.BreakerCooldown()),
		},
	})
	gw := gateway.FromSet(set,
		gateway.WithExpectedLocation(cfg.ExpectedLocation, cfg.RadiusMeters),
		gateway.WithMaxSwapAge(cfg.MaxSwapAgeHours),
	)

	store, err := openStore(ctx, cfg, c)
	if err != nil {
		c.close()
		return nil, err
	}
	c.health.Register("audit_store", health.Ping("audit_store", func(ctx context.Context) error {
		_, err := store.Count(ctx)
		return err
	}))

	var guard replay.Guard
	if rdb != nil {
		guard = replay.NewRedisGuard(rdb, cfg.ReplayTTL())
	} else {
		guard = replay.NewInMemoryGuard(replay.WithTTL(cfg.ReplayTTL()), replay.WithMaxSize(cfg.ReplaySize))
	}

	var notifier notify.Notifier = notify.NewLogNotifier()
	if len(cfg.KafkaBrokers) > 0 {
		notifier = notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
	}

	c.svc = app.New(
		app.WithLogger(logger.Get().Named("service")),
		app.WithGateway(gw),
		app.WithEngine(engine),
		app.WithStore(store),
		app.WithReplayGuard(guard),
		app.WithNotifier(notifier),
		app.WithCountryCode(cfg.DefaultCountryCode),
		app.WithHistoryLimit(cfg.HistoryLimit),
		app.WithAuditQueueSize(cfg.AuditQueueSize),
		app.WithAuditTimeout(cfg.AuditTimeout()),
		app.WithSummarySchedule(cfg.SummaryCron),
		app.WithProviderStatus(set.Statuses),
	)

	log.Info(ctx, "components wired",
		logger.String("audit_backend", cfg.AuditBackend),
		logger.Bool("redis", rdb != nil),
		logger.Bool("kafka", len(cfg.KafkaBrokers) > 0),
		logger.Any("provider_modes", modes),
	)
	return c, nil
}

// countryList builds the country list and the source it is refreshed from.
func countryList(cfg *config.Config, rdb *redis.Client) (*countryrisk.List, countryrisk.Source) {
	snapshot := countryrisk.DefaultSnapshot()
	if len(cfg.HighRiskCountries) > 0 {
		snapshot.HighRisk = cfg.HighRiskCountries
	}
	if len(cfg.WatchlistCountries) > 0 {
		snapshot.Watchlist = cfg.WatchlistCountries
	}
	list := countryrisk.NewList(snapshot)
	if rdb != nil {
		return list, countryrisk.NewRedisSource(rdb, "", "")
	}
	return list, countryrisk.NewStaticSource(snapshot)
}

// openStore opens the configured audit backend. The service closes the
// store; c closes anything underneath it.
func openStore(ctx context.Context, cfg *config.Config, c *components) (repository.Store, error) {
	switch cfg.AuditBackend {
	case config.BackendFile:
		st, err := repository.OpenFileLog(cfg.AuditFile, repository.WithFsync(cfg.AuditFsync))
		if err != nil {
			return nil, fmt.Errorf("open audit file: %w", err)
		}
		return st, nil
	case config.BackendPostgres:
		db, err := connectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		c.health.Register("postgres", health.Ping("postgres", db.PingContext))
		st, err := repository.NewPostgresLog(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("open postgres audit log: %w", err)
		}
		return st, nil
	default:
		return repository.NewMemoryLog(), nil
	}
}

// connectPostgres opens the pool and retries the first ping with
// exponential backoff.
func connectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	log := logger.Get().Named("wire")
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), dbConnectAttempts), ctx)
	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, b, func(err error, wait time.Duration) {
		log.Warn(ctx, "postgres not ready, retrying", logger.Duration("wait", wait), logger.Error(err))
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}
