package provider

import (
	"context"
	"fmt"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
)

// DefaultHomeNetwork is reported when the device is on its home network.
const DefaultHomeNetwork = "Airtel IN"

const locationMaxAgeSeconds = 60

// LiveSimSwap queries the SIM swap check API.
type LiveSimSwap struct{ client *camara.Client }

// NewLiveSimSwap wraps client.
func NewLiveSimSwap(client *camara.Client) *LiveSimSwap { return &LiveSimSwap{client: client} }

// Ready reports whether credentials are configured.
func (l *LiveSimSwap) Ready() bool { return l.client.HasCredentials() }

// Fetch calls the provider once.
func (l *LiveSimSwap) Fetch(ctx context.Context, req Request) (model.SimSwapSignal, error) {
	r, err := l.client.CheckSimSwap(ctx, req.Identifier, req.MaxSwapAgeHours)
	if err != nil {
		return model.SimSwapSignal{}, err
	}
	sig := model.SimSwapSignal{Swapped: *r.Swapped, Message: "No SIM swap detected"}
	if sig.Swapped {
		sig.Message = fmt.Sprintf("SIM swap detected within the last %d hours", req.MaxSwapAgeHours)
	}
	return sig, nil
}

// LiveLocation queries the location retrieval API and compares the
// position with the expected address.
type LiveLocation struct {
	client   *camara.Client
	resolver *geo.Resolver
}

// NewLiveLocation wraps client; a nil resolver uses the built-in table.
func NewLiveLocation(client *camara.Client, resolver *geo.Resolver) *LiveLocation {
	if resolver == nil {
		resolver = geo.NewResolver(nil)
	}
	return &LiveLocation{client: client, resolver: resolver}
}

// Ready reports whether credentials are configured.
func (l *LiveLocation) Ready() bool { return l.client.HasCredentials() }

// Fetch calls the provider once.
func (l *LiveLocation) Fetch(ctx context.Context, req Request) (model.LocationSignal, error) {
	r, err := l.client.RetrieveLocation(ctx, req.Identifier, locationMaxAgeSeconds)
	if err != nil {
		return model.LocationSignal{}, err
	}
	return locate(l.resolver, req, geo.Point{Lat: *r.Latitude, Lon: *r.Longitude}, r.Accuracy), nil
}

func locate(resolver *geo.Resolver, req Request, at geo.Point, accuracy float64) model.LocationSignal {
	d := geo.Distance(req.Expected, at)
	country, city := resolver.Resolve(at)
	return model.LocationSignal{
		Verified:       d < req.RadiusMeters,
		DistanceMeters: d,
		Latitude:       at.Lat,
		Longitude:      at.Lon,
		Accuracy:       accuracy,
		Country:        country,
		City:           city,
	}
}

// LiveRoaming queries the device roaming status API.
type LiveRoaming struct {
	client      *camara.Client
	homeNetwork string
}

// NewLiveRoaming wraps client.
func NewLiveRoaming(client *camara.Client, homeNetwork string) *LiveRoaming {
	if homeNetwork == "" {
		homeNetwork = DefaultHomeNetwork
	}
	return &LiveRoaming{client: client, homeNetwork: homeNetwork}
}

// Ready reports whether credentials are configured.
func (l *LiveRoaming) Ready() bool { return l.client.HasCredentials() }

// Fetch calls the provider once.
func (l *LiveRoaming) Fetch(ctx context.Context, req Request) (model.RoamingSignal, error) {
	r, err := l.client.Roaming(ctx, req.Identifier)
	if err != nil {
		return model.RoamingSignal{}, err
	}
	sig := model.RoamingSignal{
		Roaming:        *r.Roaming,
		HomeNetwork:    l.homeNetwork,
		CurrentNetwork: l.homeNetwork,
	}
	if sig.Roaming {
		sig.Country = geo.Unknown
		if len(r.CountryName) > 0 && r.CountryName[0] != "" {
			sig.Country = r.CountryName[0]
		}
		sig.CurrentNetwork = "Network in " + sig.Country
	}
	return sig, nil
}

// LiveConnectivity queries the device connectivity status API.
type LiveConnectivity struct{ client *camara.Client }

// NewLiveConnectivity wraps client.
func NewLiveConnectivity(client *camara.Client) *LiveConnectivity {
	return &LiveConnectivity{client: client}
}

// Ready reports whether credentials are configured.
func (l *LiveConnectivity) Ready() bool { return l.client.HasCredentials() }

// Fetch calls the provider once.
func (l *LiveConnectivity) Fetch(ctx context.Context, req Request) (model.ConnectivitySignal, error) {
	r, err := l.client.Connectivity(ctx, req.Identifier)
	if err != nil {
		return model.ConnectivitySignal{}, err
	}
	status := MapConnectivity(r.ConnectivityStatus)
	sig := model.ConnectivitySignal{Status: status, NetworkType: networkType(status), LastSeen: "Currently Active"}
	if status == model.ConnectivityNotConnected {
		sig.LastSeen = r.LastStatusTime
		if sig.LastSeen == "" {
			sig.LastSeen = geo.Unknown
		}
	}
	return sig, nil
}

// MapConnectivity normalizes a CAMARA connectivity status.
func MapConnectivity(status string) model.Connectivity {
	switch status {
	case "CONNECTED_DATA":
		return model.ConnectivityData
	case "CONNECTED_SMS":
		return model.ConnectivitySMS
	default:
		return model.ConnectivityNotConnected
	}
}

func networkType(c model.Connectivity) string {
	switch c {
	case model.ConnectivityData:
		return "4G"
	case model.ConnectivitySMS:
		return "GSM"
	default:
		return "Unknown"
	}
}
