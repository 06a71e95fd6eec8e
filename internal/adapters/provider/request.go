package provider

import (
	"fmt"
	"strings"

	"github.com/okian/netrisk/internal/domain/geo"
)

// Request is the input shared by every provider strategy.
type Request struct {
	Identifier      string    // normalized E.164 number
	Expected        geo.Point // KYC address
	RadiusMeters    float64   // location match radius
	MaxSwapAgeHours int       // SIM swap lookback
}

// Mode selects the strategy an adapter uses.
type Mode string

const (
	// ModeLive calls the provider and falls back to simulation on failure.
	ModeLive Mode = "live"
	// ModeSimulated never calls the provider.
	ModeSimulated Mode = "simulated"
)

// ParseMode accepts "live"/"real" and "simulated"/"mock".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "live", "real":
		return ModeLive, nil
	case "simulated", "mock":
		return ModeSimulated, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
