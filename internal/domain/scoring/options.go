package scoring

import "github.com/okian/netrisk/internal/domain/model"

// Weights are the per-factor weights of the weighted layer.
type Weights struct {
	Model       float64 `koanf:"model"`
	Location    float64 `koanf:"location"`
	SimSwap     float64 `koanf:"sim_swap"`
	Roaming     float64 `koanf:"roaming"`
	CountryRisk float64 `koanf:"country_risk"`
}

// DefaultWeights returns 0.4 model, 0.2 location, 0.2 SIM, 0.1 roaming, 0.1 country.
func DefaultWeights() Weights {
	return Weights{Model: 0.4, Location: 0.2, SimSwap: 0.2, Roaming: 0.1, CountryRisk: 0.1}
}

func (w Weights) sum() float64 {
	return w.Model + w.Location + w.SimSwap + w.Roaming + w.CountryRisk
}

// Thresholds split the final score into decisions: below StepUp accepts,
// up to and including Reject steps up, above Reject rejects.
type Thresholds struct {
	StepUp float64 `koanf:"step_up"`
	Reject float64 `koanf:"reject"`
}

// DefaultThresholds returns 35 and 70.
func DefaultThresholds() Thresholds { return Thresholds{StepUp: 35, Reject: 70} }

// RuleSpec declares an additional condition rule. When is an expr
// predicate over Facts.
type RuleSpec struct {
	ID          string  `koanf:"id"`
	When        string  `koanf:"when"`
	Points      float64 `koanf:"points"`
	Description string  `koanf:"description"`
}

// CountryClassifier resolves the risk level of a country name.
type CountryClassifier interface {
	Level(country string) model.CountryRiskLevel
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights replaces the default weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithThresholds replaces the default decision thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithRulePoints overrides the points of built-in rules by id.
func WithRulePoints(points map[string]float64) Option {
	return func(e *Engine) {
		for id, p := range points {
			e.pointOverrides[id] = p
		}
	}
}

// WithExtraRules appends rules after the built-in table.
func WithExtraRules(rules ...RuleSpec) Option {
	return func(e *Engine) { e.extra = append(e.extra, rules...) }
}

// WithCountryClassifier sets the country list used for the country factor.
func WithCountryClassifier(c CountryClassifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.countries = c
		}
	}
}
