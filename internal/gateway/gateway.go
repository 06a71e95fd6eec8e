// Package gateway collects the complete network signal bundle for a
// transaction by querying all four provider adapters concurrently.
package gateway

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
	"github.com/okian/netrisk/pkg/traces"
)

// Defaults for the expected subscriber address.
var DefaultExpected = geo.Point{Lat: 26.4499, Lon: 80.3319}

const (
	DefaultRadiusMeters    = 50000
	DefaultMaxSwapAgeHours = 240
)

// Gateway fans out to the adapters. It holds no per-call state.
type Gateway struct {
	simSwap      provider.Fetcher[model.SimSwapSignal]
	location     provider.Fetcher[model.LocationSignal]
	roaming      provider.Fetcher[model.RoamingSignal]
	connectivity provider.Fetcher[model.ConnectivitySignal]

	expected     geo.Point
	radius       float64
	maxSwapHours int
	log          logger.Logger
}

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithExpectedLocation sets the KYC address and match radius.
func WithExpectedLocation(p geo.Point, radiusMeters float64) Option {
	return func(g *Gateway) {
		g.expected = p
		if radiusMeters > 0 {
			g.radius = radiusMeters
		}
	}
}

// WithMaxSwapAge sets the SIM swap lookback in hours.
func WithMaxSwapAge(hours int) Option {
	return func(g *Gateway) {
		if hours > 0 {
			g.maxSwapHours = hours
		}
	}
}

// New creates a gateway over one fetcher per kind.
func New(
	simSwap provider.Fetcher[model.SimSwapSignal],
	location provider.Fetcher[model.LocationSignal],
	roaming provider.Fetcher[model.RoamingSignal],
	connectivity provider.Fetcher[model.ConnectivitySignal],
	opts ...Option,
) *Gateway {
	g := &Gateway{
		simSwap:      simSwap,
		location:     location,
		roaming:      roaming,
		connectivity: connectivity,
		expected:     DefaultExpected,
		radius:       DefaultRadiusMeters,
		maxSwapHours: DefaultMaxSwapAgeHours,
		log:          logger.Get().Named("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromSet creates a gateway over a provider set.
func FromSet(s *provider.Set, opts ...Option) *Gateway {
	return New(s.SimSwap, s.Location, s.Roaming, s.Connectivity, opts...)
}

// Collect returns the complete bundle. It waits for all four adapters; each
// adapter bounds its own latency and never fails, so no partial bundle is
// ever produced.
func (g *Gateway) Collect(ctx context.Context, tx model.Transaction) model.NetworkSignals {
	start := time.Now()
	ctx, span := traces.StartSpan(ctx, "gateway.collect", traces.TransactionID(tx.ID))
	defer span.End()

	req := provider.Request{
		Identifier:      tx.Identifier,
		Expected:        g.expected,
		RadiusMeters:    g.radius,
		MaxSwapAgeHours: g.maxSwapHours,
	}

	var out model.NetworkSignals
	var eg errgroup.Group
	eg.Go(func() error { out.SimSwap = g.simSwap.Fetch(ctx, req); return nil })
	eg.Go(func() error { out.Location = g.location.Fetch(ctx, req); return nil })
	eg.Go(func() error { out.Roaming = g.roaming.Fetch(ctx, req); return nil })
	eg.Go(func() error { out.Connectivity = g.connectivity.Fetch(ctx, req); return nil })
	_ = eg.Wait()

	simulated := out.Simulated()
	metrics.RecordGatewayCollection(float64(time.Since(start).Microseconds())/1000, len(simulated))
	if len(simulated) > 0 {
		kinds := make([]string, len(simulated))
		for i, k := range simulated {
			kinds[i] = string(k)
		}
		g.log.Debug(ctx, "signals served by simulation",
			logger.String("transaction_id", tx.ID), logger.Any("kinds", kinds))
	}
	return out
}
