package scoring

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
)

// Built-in rule ids, in table order.
const (
	RuleLocationSuspicious = "LOCATION_SUSPICIOUS"
	RuleSimSwapDetected    = "SIM_SWAP_DETECTED"
	RuleDeviceRoaming      = "DEVICE_ROAMING"
	RuleHighRiskCountry    = "FATF_HIGH_RISK_COUNTRY"
	RuleDeviceOffline      = "DEVICE_OFFLINE"
)

// Facts is the environment rule predicates are evaluated against.
type Facts struct {
	LocationVerified bool
	DistanceKm       float64
	SimSwapped       bool
	LastSwap         string
	Roaming          bool // provider roaming or home country mismatch
	ProviderRoaming  bool
	RoamingCountry   string
	Country          string
	HomeCountry      string
	HighRiskCountry  bool
	Watchlisted      bool
	Offline          bool
	LastSeen         string
	Amount           float64
	ModelProbability float64
}

// NewFacts derives the rule environment from a signal bundle.
func NewFacts(probability float64, s model.NetworkSignals, tx model.Transaction, level model.CountryRiskLevel) Facts {
	country := s.Location.Country
	mismatch := tx.HomeCountry != "" && known(country) && !strings.EqualFold(strings.TrimSpace(country), strings.TrimSpace(tx.HomeCountry))
	return Facts{
		LocationVerified: s.Location.Verified,
		DistanceKm:       s.Location.DistanceKm(),
		SimSwapped:       s.SimSwap.Swapped,
		LastSwap:         s.SimSwap.LastSwap(),
		Roaming:          s.Roaming.Roaming || mismatch,
		ProviderRoaming:  s.Roaming.Roaming,
		RoamingCountry:   s.Roaming.Country,
		Country:          country,
		HomeCountry:      tx.HomeCountry,
		HighRiskCountry:  level == model.CountryHighRisk,
		Watchlisted:      level == model.CountryWatchlisted,
		Offline:          s.Connectivity.Offline(),
		LastSeen:         s.Connectivity.LastSeen,
		Amount:           tx.Amount,
		ModelProbability: probability,
	}
}

func known(country string) bool {
	c := strings.TrimSpace(country)
	return c != "" && !strings.EqualFold(c, geo.Unknown)
}

type rule struct {
	id       string
	points   float64
	program  *vm.Program
	describe func(Facts) string
}

type builtin struct {
	id       string
	when     string
	points   float64
	describe func(Facts) string
}

var builtins = []builtin{
	{RuleLocationSuspicious, "!LocationVerified", 50, func(f Facts) string {
		return fmt.Sprintf("Device location does not match KYC address (Distance: %.1f km)", f.DistanceKm)
	}},
	{RuleSimSwapDetected, "SimSwapped", 40, func(f Facts) string {
		return fmt.Sprintf("Recent SIM swap detected (%s)", f.LastSwap)
	}},
	{RuleDeviceRoaming, "Roaming", 20, func(f Facts) string {
		if !f.ProviderRoaming {
			return fmt.Sprintf("Device located in %s while registered in %s", f.Country, f.HomeCountry)
		}
		return fmt.Sprintf("Device roaming in %s", f.RoamingCountry)
	}},
	{RuleHighRiskCountry, "HighRiskCountry", 35, func(f Facts) string {
		return fmt.Sprintf("Transaction from FATF high-risk country: %s", f.Country)
	}},
	{RuleDeviceOffline, "Offline", 25, func(f Facts) string {
		return fmt.Sprintf("Device not connected to network (Last seen: %s)", f.LastSeen)
	}},
}

func compile(id, when string) (*vm.Program, error) {
	p, err := expr.Compile(when, expr.Env(Facts{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, id, err)
	}
	return p, nil
}

func staticDescription(text string) func(Facts) string {
	return func(Facts) string { return text }
}
