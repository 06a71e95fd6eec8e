package countryrisk

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

// Source loads a country list snapshot from an external system.
type Source interface {
	Load(ctx context.Context) (Snapshot, error)
}

// StaticSource serves a fixed snapshot, typically from configuration.
type StaticSource struct {
	snapshot Snapshot
}

// NewStaticSource wraps s.
func NewStaticSource(s Snapshot) *StaticSource { return &StaticSource{snapshot: s} }

// Load returns the configured snapshot.
func (s *StaticSource) Load(context.Context) (Snapshot, error) { return s.snapshot, nil }

// Default Redis set keys.
const (
	DefaultRedisHighRiskKey  = "netrisk:countries:high_risk"
	DefaultRedisWatchlistKey = "netrisk:countries:watchlist"
)

// RedisSource reads the list from two Redis sets.
type RedisSource struct {
	client       redis.Cmdable
	highRiskKey  string
	watchlistKey string
}

// NewRedisSource reads highRiskKey and watchlistKey (defaults when empty).
func NewRedisSource(client redis.Cmdable, highRiskKey, watchlistKey string) *RedisSource {
	if highRiskKey == "" {
		highRiskKey = DefaultRedisHighRiskKey
	}
	if watchlistKey == "" {
		watchlistKey = DefaultRedisWatchlistKey
	}
	return &RedisSource{client: client, highRiskKey: highRiskKey, watchlistKey: watchlistKey}
}

// Load fetches both sets.
func (r *RedisSource) Load(ctx context.Context) (Snapshot, error) {
	high, err := r.client.SMembers(ctx, r.highRiskKey).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", r.highRiskKey, err)
	}
	watch, err := r.client.SMembers(ctx, r.watchlistKey).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", r.watchlistKey, err)
	}
	return Snapshot{HighRisk: high, Watchlist: watch}, nil
}

// Refresher periodically reloads a List from a Source.
type Refresher struct {
	list     *List
	source   Source
	interval time.Duration
	log      logger.Logger
}

// NewRefresher creates a refresher; interval <= 0 disables periodic reloads.
func NewRefresher(list *List, source Source, interval time.Duration) *Refresher {
	return &Refresher{list: list, source: source, interval: interval, log: logger.Get().Named("countryrisk")}
}

// Refresh loads once and publishes the result. An empty or failed load
// keeps the current list.
func (r *Refresher) Refresh(ctx context.Context) error {
	s, err := r.source.Load(ctx)
	if err == nil && len(s.HighRisk) == 0 && len(s.Watchlist) == 0 {
		err = ErrEmptySnapshot
	}
	if err != nil {
		metrics.RecordCountryListRefresh("error")
		return err
	}
	r.list.Replace(s)
	high, watch := r.list.Sizes()
	metrics.RecordCountryListRefresh("ok")
	metrics.UpdateCountryListSize(string(model.CountryHighRisk), high)
	metrics.UpdateCountryListSize(string(model.CountryWatchlisted), watch)
	return nil
}

// Run refreshes every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn(ctx, "country list refresh failed; keeping current list", logger.Error(err))
			}
		}
	}
}
