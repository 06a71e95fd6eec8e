// Package scoring fuses a model probability with network signals into a
// 0-100 risk score and an ACCEPT / STEP_UP / REJECT decision.
//
// Two layers are computed independently. The weighted layer blends the
// probability with binary network risk factors. The condition layer takes
// the highest points of any fired rule. The final score is the larger of
// the two, so a single strong network signal cannot be diluted by a low
// model probability.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/expr-lang/expr"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
)

const weightTolerance = 1e-6

// noCountries classifies every country as normal.
type noCountries struct{}

func (noCountries) Level(string) model.CountryRiskLevel { return model.CountryNormal }

// Engine is the hybrid scoring engine. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	weights        Weights
	thresholds     Thresholds
	pointOverrides map[string]float64
	extra          []RuleSpec
	countries      CountryClassifier
	rules          []rule
	log            logger.Logger
}

// NewEngine validates the configuration and compiles the rule table.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:        DefaultWeights(),
		thresholds:     DefaultThresholds(),
		pointOverrides: make(map[string]float64),
		countries:      noCountries{},
		log:            logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}

	w := e.weights
	if w.Model < 0 || w.Location < 0 || w.SimSwap < 0 || w.Roaming < 0 || w.CountryRisk < 0 ||
		math.Abs(w.sum()-1) > weightTolerance {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
	}
	t := e.thresholds
	if t.StepUp <= 0 || t.StepUp > t.Reject || t.Reject > 100 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidThresholds, t)
	}

	seen := make(map[string]bool)
	for _, b := range builtins {
		points := b.points
		if p, ok := e.pointOverrides[b.id]; ok {
			points = p
		}
		if err := e.addRule(seen, b.id, b.when, points, b.describe); err != nil {
			return nil, err
		}
	}
	for id := range e.pointOverrides {
		if !seen[id] {
			return nil, fmt.Errorf("%w: unknown rule %q in point overrides", ErrInvalidRule, id)
		}
	}
	for _, r := range e.extra {
		desc := r.Description
		if desc == "" {
			desc = r.ID
		}
		if err := e.addRule(seen, r.ID, r.When, r.Points, staticDescription(desc)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) addRule(seen map[string]bool, id, when string, points float64, describe func(Facts) string) error {
	if id == "" || when == "" {
		return fmt.Errorf("%w: rule needs an id and a predicate", ErrInvalidRule)
	}
	if seen[id] {
		return fmt.Errorf("%w: duplicate rule %q", ErrInvalidRule, id)
	}
	if points < 0 || points > 100 {
		return fmt.Errorf("%w: %s points %v outside 0-100", ErrInvalidRule, id, points)
	}
	program, err := compile(id, when)
	if err != nil {
		return err
	}
	seen[id] = true
	e.rules = append(e.rules, rule{id: id, points: points, program: program, describe: describe})
	return nil
}

// Score computes the hybrid breakdown. It never fails; a probability outside
// [0,1] is clamped.
func (e *Engine) Score(probability float64, signals model.NetworkSignals, tx model.Transaction) model.ScoringBreakdown {
	p := clamp01(probability)
	level := e.countries.Level(signals.Location.Country)
	facts := NewFacts(p, signals, tx, level)

	factors := model.RiskFactors{
		Model:       p,
		Location:    boolFactor(!facts.LocationVerified),
		SimSwap:     boolFactor(facts.SimSwapped),
		Roaming:     boolFactor(facts.Roaming),
		CountryRisk: boolFactor(facts.HighRiskCountry),
	}
	w := e.weights
	raw := w.Model*factors.Model + w.Location*factors.Location + w.SimSwap*factors.SimSwap +
		w.Roaming*factors.Roaming + w.CountryRisk*factors.CountryRisk
	weighted := round2(raw * 100)

	triggered := e.evaluate(facts)
	condition := 0.0
	for _, r := range triggered {
		condition = math.Max(condition, r.Points)
	}

	final := math.Max(weighted, condition)
	return model.ScoringBreakdown{
		ModelProbability: p,
		ModelScore:       round2(p * 100),
		Factors:          factors,
		CountryRisk:      level,
		WeightedScore:    weighted,
		ConditionScore:   condition,
		FinalScore:       final,
		Decision:         e.Decide(final),
		TriggeredRules:   triggered,
	}
}

// Decide maps a final score to a decision.
func (e *Engine) Decide(final float64) model.Decision {
	switch {
	case final < e.thresholds.StepUp:
		return model.DecisionAccept
	case final <= e.thresholds.Reject:
		return model.DecisionStepUp
	default:
		return model.DecisionReject
	}
}

// Rules returns the rule ids in evaluation order.
func (e *Engine) Rules() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.id
	}
	return ids
}

func (e *Engine) evaluate(f Facts) []model.TriggeredRule {
	triggered := make([]model.TriggeredRule, 0, len(e.rules))
	for _, r := range e.rules {
		out, err := expr.Run(r.program, f)
		if err != nil {
			e.log.Warn(context.Background(), "rule evaluation failed", logger.String("rule", r.id), logger.Error(err))
			continue
		}
		if fired, _ := out.(bool); fired {
			triggered = append(triggered, model.TriggeredRule{ID: r.id, Points: r.points, Description: r.describe(f)})
		}
	}
	return triggered
}

func boolFactor(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
