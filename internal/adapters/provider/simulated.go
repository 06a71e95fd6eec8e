package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
)

// Simulation rates, in percent.
const (
	simSwapRate      = 15
	simRoamingRate   = 20
	simOfflineRate   = 10
	simSMSOnlyRate   = 15
	simJitterDegrees = 0.5
)

var roamingPartners = []struct{ network, country string }{
	{"Vodafone UK", "United Kingdom"},
	{"T-Mobile DE", "Germany"},
	{"China Mobile", "China"},
	{"Etisalat UAE", "United Arab Emirates"},
}

// simulatedPlaces is the synthetic location table: the first eleven
// reference places, one per bucket.
var simulatedPlaces = slices.Clone(geo.Places[:11])

// seed derives a stable per-kind seed from the identifier.
func seed(kind model.SignalKind, identifier string) uint64 {
	return xxhash.Sum64String(string(kind) + "|" + identifier)
}

// SimulatedSimSwap derives a reproducible SIM swap status.
type SimulatedSimSwap struct{}

// Fetch never fails.
func (SimulatedSimSwap) Fetch(_ context.Context, req Request) (model.SimSwapSignal, error) {
	h := seed(model.KindSimSwap, req.Identifier)
	if h%100 >= simSwapRate {
		return model.SimSwapSignal{Message: "No recent swap"}, nil
	}
	days := 1 + rand.IntN(10) //nolint:gosec // synthetic jitter
	return model.SimSwapSignal{
		Swapped:      true,
		SwapAgeHours: days * 24,
		Message:      fmt.Sprintf("%d days ago", days),
	}, nil
}

// SimulatedLocation picks a reproducible reference place and jitters the
// coordinates around it.
type SimulatedLocation struct {
	resolver *geo.Resolver
}

// NewSimulatedLocation creates the location simulator.
func NewSimulatedLocation() *SimulatedLocation {
	return &SimulatedLocation{resolver: geo.NewResolver(simulatedPlaces)}
}

// Fetch never fails. The place (and so the country and city) is a pure
// function of the identifier; coordinates vary within half a degree.
func (s *SimulatedLocation) Fetch(_ context.Context, req Request) (model.LocationSignal, error) {
	h := seed(model.KindLocation, req.Identifier)
	place := simulatedPlaces[h%uint64(len(simulatedPlaces))]
	at := geo.Point{
		Lat: place.Point.Lat + (rand.Float64()*2-1)*simJitterDegrees, //nolint:gosec // synthetic jitter
		Lon: place.Point.Lon + (rand.Float64()*2-1)*simJitterDegrees, //nolint:gosec // synthetic jitter
	}
	sig := locate(s.resolver, req, at, 1000)
	sig.Country, sig.City = place.Country, place.City
	return sig, nil
}

// SimulatedRoaming derives a reproducible roaming status and partner network.
type SimulatedRoaming struct {
	homeNetwork string
}

// NewSimulatedRoaming creates the roaming simulator.
func NewSimulatedRoaming(homeNetwork string) *SimulatedRoaming {
	if homeNetwork == "" {
		homeNetwork = DefaultHomeNetwork
	}
	return &SimulatedRoaming{homeNetwork: homeNetwork}
}

// Fetch never fails.
func (s *SimulatedRoaming) Fetch(_ context.Context, req Request) (model.RoamingSignal, error) {
	h := seed(model.KindRoaming, req.Identifier)
	sig := model.RoamingSignal{HomeNetwork: s.homeNetwork, CurrentNetwork: s.homeNetwork}
	if h%100 < simRoamingRate {
		p := roamingPartners[(h/100)%uint64(len(roamingPartners))]
		sig.Roaming = true
		sig.CurrentNetwork = p.network
		sig.Country = p.country
	}
	return sig, nil
}

// SimulatedConnectivity derives a reproducible reachability status.
type SimulatedConnectivity struct {
	now func() time.Time
}

// NewSimulatedConnectivity creates the connectivity simulator.
func NewSimulatedConnectivity() *SimulatedConnectivity {
	return &SimulatedConnectivity{now: time.Now}
}

// Fetch never fails.
func (s *SimulatedConnectivity) Fetch(_ context.Context, req Request) (model.ConnectivitySignal, error) {
	h := seed(model.KindConnectivity, req.Identifier) % 100
	switch {
	case h < simOfflineRate:
		hours := 2 + rand.IntN(47) //nolint:gosec // synthetic jitter
		return model.ConnectivitySignal{
			Status:      model.ConnectivityNotConnected,
			NetworkType: networkType(model.ConnectivityNotConnected),
			LastSeen:    s.now().Add(-time.Duration(hours) * time.Hour).Format(time.DateTime),
		}, nil
	case h < simOfflineRate+simSMSOnlyRate:
		return model.ConnectivitySignal{Status: model.ConnectivitySMS, NetworkType: networkType(model.ConnectivitySMS), LastSeen: "Currently Active"}, nil
	default:
		return model.ConnectivitySignal{Status: model.ConnectivityData, NetworkType: networkType(model.ConnectivityData), LastSeen: "Currently Active"}, nil
	}
}
