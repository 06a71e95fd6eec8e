package provider

import (
	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
)

// Set holds one adapter per signal kind.
type Set struct {
	SimSwap      *Adapter[model.SimSwapSignal]
	Location     *Adapter[model.LocationSignal]
	Roaming      *Adapter[model.RoamingSignal]
	Connectivity *Adapter[model.ConnectivitySignal]
}

// SetConfig configures NewSet.
type SetConfig struct {
	Modes       map[model.SignalKind]Mode
	HomeNetwork string
	Resolver    *geo.Resolver
	Options     []Option // applied to every adapter before its mode
}

// NewSet wires live strategies over client and simulated fallbacks.
func NewSet(client *camara.Client, cfg SetConfig) *Set {
	opts := func(kind model.SignalKind) []Option {
		return append(append([]Option(nil), cfg.Options...), WithMode(cfg.Modes[kind]))
	}
	return &Set{
		SimSwap: New[model.SimSwapSignal](NewLiveSimSwap(client), SimulatedSimSwap{},
			opts(model.KindSimSwap)...),
		Location: New[model.LocationSignal](NewLiveLocation(client, cfg.Resolver), NewSimulatedLocation(),
			opts(model.KindLocation)...),
		Roaming: New[model.RoamingSignal](NewLiveRoaming(client, cfg.HomeNetwork), NewSimulatedRoaming(cfg.HomeNetwork),
			opts(model.KindRoaming)...),
		Connectivity: New[model.ConnectivitySignal](NewLiveConnectivity(client), NewSimulatedConnectivity(),
			opts(model.KindConnectivity)...),
	}
}

// Status describes one adapter for health and stats endpoints.
type Status struct {
	Kind    model.SignalKind `json:"kind"`
	Mode    Mode             `json:"mode"`
	Breaker string           `json:"breaker"`
}

// Statuses lists adapter states in collection order.
func (s *Set) Statuses() []Status {
	return []Status{
		{Kind: s.SimSwap.Kind(), Mode: s.SimSwap.Mode(), Breaker: s.SimSwap.BreakerState()},
		{Kind: s.Location.Kind(), Mode: s.Location.Mode(), Breaker: s.Location.BreakerState()},
		{Kind: s.Roaming.Kind(), Mode: s.Roaming.Mode(), Breaker: s.Roaming.BreakerState()},
		{Kind: s.Connectivity.Kind(), Mode: s.Connectivity.Mode(), Breaker: s.Connectivity.BreakerState()},
	}
}
