package model

// SignalKind names one of the four network intelligence providers.
type SignalKind string

const (
	KindSimSwap      SignalKind = "sim_recency"
	KindLocation     SignalKind = "location"
	KindRoaming      SignalKind = "roaming"
	KindConnectivity SignalKind = "connectivity"
)

// Kinds returns every signal kind in collection order.
func Kinds() []SignalKind {
	return []SignalKind{KindSimSwap, KindLocation, KindRoaming, KindConnectivity}
}

// Provenance records whether a signal came from the provider or the simulator.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSimulated Provenance = "simulated"
)

// Signal is implemented by the four per-kind signal variants.
type Signal[T any] interface {
	Kind() SignalKind
	Source() Provenance
	WithProvenance(p Provenance) T
}

// SimSwapSignal reports a recent SIM change.
type SimSwapSignal struct {
	Swapped      bool       `json:"swapped"`
	SwapAgeHours int        `json:"swap_age_hours,omitempty"`
	Message      string     `json:"message"`
	Provenance   Provenance `json:"provenance"`
}

func (s SimSwapSignal) Kind() SignalKind   { return KindSimSwap }
func (s SimSwapSignal) Source() Provenance { return s.Provenance }
func (s SimSwapSignal) WithProvenance(p Provenance) SimSwapSignal {
	s.Provenance = p
	return s
}

// LastSwap renders the swap recency for narratives.
func (s SimSwapSignal) LastSwap() string {
	if !s.Swapped {
		return "none"
	}
	if s.SwapAgeHours <= 0 {
		return "recently"
	}
	if s.SwapAgeHours < 48 {
		return formatCount(s.SwapAgeHours, "hour") + " ago"
	}
	return formatCount(s.SwapAgeHours/24, "day") + " ago"
}

// LocationSignal compares the device position with the expected address.
type LocationSignal struct {
	Verified       bool       `json:"verified"`
	DistanceMeters float64    `json:"distance_meters"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Accuracy       float64    `json:"accuracy"`
	Country        string     `json:"country"`
	City           string     `json:"city"`
	Provenance     Provenance `json:"provenance"`
}

func (s LocationSignal) Kind() SignalKind   { return KindLocation }
func (s LocationSignal) Source() Provenance { return s.Provenance }
func (s LocationSignal) WithProvenance(p Provenance) LocationSignal {
	s.Provenance = p
	return s
}

// DistanceKm is the distance from the expected address in kilometres.
func (s LocationSignal) DistanceKm() float64 { return s.DistanceMeters / 1000 }

// RoamingSignal reports whether the device is attached to a foreign network.
type RoamingSignal struct {
	Roaming        bool       `json:"roaming"`
	HomeNetwork    string     `json:"home_network"`
	CurrentNetwork string     `json:"current_network"`
	Country        string     `json:"country"`
	Provenance     Provenance `json:"provenance"`
}

func (s RoamingSignal) Kind() SignalKind   { return KindRoaming }
func (s RoamingSignal) Source() Provenance { return s.Provenance }
func (s RoamingSignal) WithProvenance(p Provenance) RoamingSignal {
	s.Provenance = p
	return s
}

// Connectivity is the normalized reachability status of a device.
type Connectivity string

const (
	ConnectivityData         Connectivity = "DATA"
	ConnectivitySMS          Connectivity = "SMS"
	ConnectivityNotConnected Connectivity = "NOT_CONNECTED"
)

// ConnectivitySignal reports device reachability.
type ConnectivitySignal struct {
	Status      Connectivity `json:"status"`
	NetworkType string       `json:"network_type,omitempty"`
	LastSeen    string       `json:"last_seen"`
	Provenance  Provenance   `json:"provenance"`
}

func (s ConnectivitySignal) Kind() SignalKind   { return KindConnectivity }
func (s ConnectivitySignal) Source() Provenance { return s.Provenance }
func (s ConnectivitySignal) WithProvenance(p Provenance) ConnectivitySignal {
	s.Provenance = p
	return s
}

// Offline reports whether the device is unreachable.
func (s ConnectivitySignal) Offline() bool { return s.Status == ConnectivityNotConnected }

// NetworkSignals is the complete bundle: exactly one signal per kind.
type NetworkSignals struct {
	SimSwap      SimSwapSignal      `json:"sim_swap"`
	Location     LocationSignal     `json:"location"`
	Roaming      RoamingSignal      `json:"roaming"`
	Connectivity ConnectivitySignal `json:"connectivity"`
}

// Provenances maps each kind to where its signal came from.
func (n NetworkSignals) Provenances() map[SignalKind]Provenance {
	return map[SignalKind]Provenance{
		KindSimSwap:      n.SimSwap.Provenance,
		KindLocation:     n.Location.Provenance,
		KindRoaming:      n.Roaming.Provenance,
		KindConnectivity: n.Connectivity.Provenance,
	}
}

// Simulated lists the kinds served by the simulator, in collection order.
func (n NetworkSignals) Simulated() []SignalKind {
	p := n.Provenances()
	var out []SignalKind
	for _, k := range Kinds() {
		if p[k] != ProvenanceLive {
			out = append(out, k)
		}
	}
	return out
}

// AllLive reports whether every signal came from a provider.
func (n NetworkSignals) AllLive() bool { return len(n.Simulated()) == 0 }

// APIMode is "REAL" when every signal is live and "MIXED" otherwise.
func (n NetworkSignals) APIMode() string {
	if n.AllLive() {
		return "REAL"
	}
	return "MIXED"
}
