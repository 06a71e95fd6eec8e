// Package provider adapts the four network intelligence providers into
// normalized signals. Each adapter makes at most one live attempt, bounded
// by its own timeout, and otherwise serves a deterministic simulation. An
// adapter never returns an error.
package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
	"github.com/okian/netrisk/pkg/traces"
)

// Strategy produces one signal kind. Live strategies call a provider;
// simulated strategies derive the signal locally.
type Strategy[T any] interface {
	Fetch(ctx context.Context, req Request) (T, error)
}

// Fetcher is what the gateway consumes.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, req Request) T
}

// readiness is implemented by live strategies that can tell up front
// whether a call can succeed.
type readiness interface {
	Ready() bool
}

// Adapter serves one signal kind.
type Adapter[T model.Signal[T]] struct {
	kind    model.SignalKind
	mode    Mode
	timeout time.Duration
	live    Strategy[T]
	sim     Strategy[T]
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

// New creates an adapter. A nil live strategy forces simulated mode.
func New[T model.Signal[T]](live, sim Strategy[T], opts ...Option) *Adapter[T] {
	s := settings{
		mode:            ModeLive,
		timeout:         DefaultTimeout,
		breakerFailures: DefaultBreakerFailures,
		breakerCooldown: DefaultBreakerCooldown,
		breakerInterval: DefaultBreakerInterval,
	}
	for _, opt := range opts {
		opt(&s)
	}
	var zero T
	kind := zero.Kind()
	if live == nil {
		s.mode = ModeSimulated
	}

	a := &Adapter[T]{
		kind:    kind,
		mode:    s.mode,
		timeout: s.timeout,
		live:    live,
		sim:     sim,
		log:     logger.Get().Named("provider." + string(kind)),
	}
	failures := s.breakerFailures
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(kind),
		MaxRequests: DefaultBreakerHalfOpen,
		Interval:    s.breakerInterval,
		Timeout:     s.breakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return failures > 0 && c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, breakerGauge(to))
			a.log.Warn(context.Background(), "provider breaker state changed",
				logger.String("from", from.String()), logger.String("to", to.String()))
		},
	})
	metrics.UpdateBreakerState(string(kind), breakerGauge(gobreaker.StateClosed))
	return a
}

// Kind returns the signal kind served.
func (a *Adapter[T]) Kind() model.SignalKind { return a.kind }

// Mode returns the configured policy.
func (a *Adapter[T]) Mode() Mode { return a.mode }

// BreakerState returns the breaker state name.
func (a *Adapter[T]) BreakerState() string { return a.breaker.State().String() }

// Fetch returns exactly one signal, live when possible.
func (a *Adapter[T]) Fetch(ctx context.Context, req Request) T {
	start := time.Now()
	ctx, span := traces.StartSpan(ctx, "provider."+string(a.kind), traces.Provider(string(a.kind)))
	defer span.End()

	if reason, ok := a.skipLive(); !ok {
		return a.simulate(ctx, req, start, reason, nil, span)
	}

	v, err := a.callLive(ctx, req)
	if err != nil {
		return a.simulate(ctx, req, start, classify(err), err, span)
	}
	v = v.WithProvenance(model.ProvenanceLive)
	metrics.RecordProviderCall(string(a.kind), string(model.ProvenanceLive), msSince(start))
	span.SetAttributes(traces.Provenance(string(model.ProvenanceLive)))
	return v
}

func (a *Adapter[T]) skipLive() (string, bool) {
	if a.mode == ModeSimulated {
		return ReasonDisabled, false
	}
	if r, ok := a.live.(readiness); ok && !r.Ready() {
		return ReasonNotConfigured, false
	}
	return "", true
}

type outcome[T any] struct {
	v   T
	err error
}

// callLive makes the single attempt. The attempt is detached from caller
// cancellation and bounded only by the adapter timeout; a late reply is
// dropped.
func (a *Adapter[T]) callLive(ctx context.Context, req Request) (T, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		out, err := a.breaker.Execute(func() (interface{}, error) {
			v, err := a.live.Fetch(callCtx, req)
			if err != nil {
				return nil, err
			}
			return v, nil
		})
		var v T
		if err == nil {
			v, _ = out.(T)
		}
		done <- outcome[T]{v: v, err: err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}

func (a *Adapter[T]) simulate(ctx context.Context, req Request, start time.Time, reason string, cause error, span trace.Span) T {
	v, err := a.sim.Fetch(ctx, req)
	if err != nil {
		var zero T
		v = zero
		a.log.Error(ctx, "simulated strategy failed", logger.Error(err))
	}
	v = v.WithProvenance(model.ProvenanceSimulated)

	metrics.RecordProviderFallback(string(a.kind), reason)
	metrics.RecordProviderCall(string(a.kind), string(model.ProvenanceSimulated), msSince(start))
	span.SetAttributes(traces.Provenance(string(model.ProvenanceSimulated)), traces.FallbackReason(reason))
	if cause != nil {
		a.log.Warn(ctx, "provider call failed; using simulated signal",
			logger.String("reason", reason), logger.Error(cause))
	} else if reason != ReasonDisabled {
		a.log.Debug(ctx, "provider skipped; using simulated signal", logger.String("reason", reason))
	}
	return v
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
