// Package explain turns a scoring breakdown into an operator-facing
// explanation and appends the resulting audit record.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/netrisk/internal/domain/model"
)

// Anomaly types.
const (
	AnomalyAmountSpike  = "AMOUNT_SPIKE"
	AnomalyHighVelocity = "HIGH_VELOCITY"
)

// Severities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
)

const highSeverityPoints = 35

// Appender stores audit records.
type Appender interface {
	Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error)
}

// Builder renders explanations and writes audit records.
type Builder struct {
	appender       Appender
	now            func() time.Time
	nextID         func() string
	spikeFactor    float64
	velocityWindow time.Duration
	velocityCount  int
}

// NewBuilder creates a builder that appends through a.
func NewBuilder(a Appender, opts ...Option) *Builder {
	b := &Builder{
		appender:       a,
		now:            time.Now,
		nextID:         uuid.NewString,
		spikeFactor:    3,
		velocityWindow: time.Hour,
		velocityCount:  3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Explain builds the explanation and audit record, then appends the record.
// history holds prior records for the same identifier in any order. On an
// append failure the built explanation and record are returned with an
// error wrapping ErrAuditWrite.
func (b *Builder) Explain(ctx context.Context, tx model.Transaction, signals model.NetworkSignals, breakdown model.ScoringBreakdown, history []model.AuditRecord) (model.Explanation, model.AuditRecord, error) {
	exp := b.Describe(tx, signals, breakdown, history)
	rec := model.AuditRecord{
		ID:          b.nextID(),
		Transaction: tx,
		Signals:     signals,
		Breakdown:   breakdown,
		Explanation: exp,
		CreatedAt:   b.now().UTC(),
	}

	stored, err := b.appender.Append(ctx, rec)
	if err != nil {
		return exp, rec, fmt.Errorf("%w: %w", ErrAuditWrite, err)
	}
	return exp, stored, nil
}

// Describe renders the explanation without touching the audit log.
func (b *Builder) Describe(tx model.Transaction, signals model.NetworkSignals, breakdown model.ScoringBreakdown, history []model.AuditRecord) model.Explanation {
	exp := model.Explanation{
		Summary:   Summary(breakdown),
		Factors:   Factors(signals, breakdown),
		Rules:     Rules(breakdown.TriggeredRules),
		Anomalies: b.Anomalies(tx, history),
	}
	exp.Narrative = Narrative(exp)
	return exp
}

// Summary is the one-sentence verdict for a decision.
func Summary(b model.ScoringBreakdown) string {
	switch b.Decision {
	case model.DecisionReject:
		return fmt.Sprintf("This transaction has been flagged as HIGH RISK (score: %s/100) and should be blocked immediately due to multiple fraud indicators.", score(b.FinalScore))
	case model.DecisionStepUp:
		return fmt.Sprintf("This transaction shows MEDIUM RISK signals (score: %s/100) and requires additional verification before processing.", score(b.FinalScore))
	default:
		return fmt.Sprintf("This transaction appears LEGITIMATE (score: %s/100) with all fraud checks passing normally.", score(b.FinalScore))
	}
}

// Factors lists one bullet per non-zero risk factor, then a note on
// simulated signals.
func Factors(s model.NetworkSignals, b model.ScoringBreakdown) []string {
	f := b.Factors
	var out []string
	if f.Model > 0 {
		out = append(out, fmt.Sprintf("Model fraud probability %.0f%%", f.Model*100))
	}
	if f.SimSwap > 0 {
		out = append(out, fmt.Sprintf("Recent SIM swap detected (%s) - critical fraud indicator", s.SimSwap.LastSwap()))
	}
	if f.Location > 0 {
		out = append(out, fmt.Sprintf("Device location is %.1f km from the registered address", s.Location.DistanceKm()))
	}
	if f.Roaming > 0 {
		if s.Roaming.Roaming {
			out = append(out, fmt.Sprintf("Device is roaming on %s in %s", s.Roaming.CurrentNetwork, s.Roaming.Country))
		} else {
			out = append(out, fmt.Sprintf("Device is located in %s, outside the customer's home country", s.Location.Country))
		}
	}
	if f.CountryRisk > 0 {
		out = append(out, fmt.Sprintf("Transaction from FATF high-risk country (%s)", s.Location.Country))
	}
	if s.Connectivity.Offline() {
		out = append(out, "Registered device is currently offline")
	}
	if sim := s.Simulated(); len(sim) > 0 {
		out = append(out, "Simulated signals used for: "+joinKinds(sim))
	}
	return out
}

// Rules renders triggered rules in the order they fired.
func Rules(triggered []model.TriggeredRule) []model.ExplainedRule {
	out := make([]model.ExplainedRule, 0, len(triggered))
	for _, r := range triggered {
		sev := SeverityMedium
		if r.Points >= highSeverityPoints {
			sev = SeverityHigh
		}
		out = append(out, model.ExplainedRule{
			Rule:        title(r.ID),
			Severity:    sev,
			Impact:      fmt.Sprintf("+%s risk score", score(r.Points)),
			Description: r.Description,
		})
	}
	return out
}

// Anomalies compares tx with prior records of the same identifier.
func (b *Builder) Anomalies(tx model.Transaction, history []model.AuditRecord) []model.Anomaly {
	if len(history) == 0 {
		return nil
	}
	var out []model.Anomaly

	var sum float64
	for _, r := range history {
		sum += r.Transaction.Amount
	}
	mean := sum / float64(len(history))
	if mean > 0 && tx.Amount > mean*b.spikeFactor {
		out = append(out, model.Anomaly{
			Type:     AnomalyAmountSpike,
			Severity: SeverityHigh,
			Description: fmt.Sprintf("Transaction amount (%.2f) is %.1fx higher than average (%.2f)",
				tx.Amount, tx.Amount/mean, mean),
		})
	}

	ref := tx.Timestamp
	if ref.IsZero() {
		ref = b.now()
	}
	recent := 0
	for _, r := range history {
		t := r.Transaction.Timestamp
		if t.IsZero() {
			t = r.CreatedAt
		}
		if !t.After(ref) && ref.Sub(t) <= b.velocityWindow {
			recent++
		}
	}
	if recent >= b.velocityCount {
		out = append(out, model.Anomaly{
			Type:        AnomalyHighVelocity,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Detected %d transactions within %s. Possible automated attack or account compromise.", recent, window(b.velocityWindow)),
		})
	}
	return out
}

// Narrative joins the explanation into a plain-text report.
func Narrative(e model.Explanation) string {
	var sb strings.Builder
	sb.WriteString(e.Summary)
	for _, f := range e.Factors {
		sb.WriteString("\n- ")
		sb.WriteString(f)
	}
	for _, r := range e.Rules {
		fmt.Fprintf(&sb, "\n- [%s] %s (%s): %s", r.Severity, r.Rule, r.Impact, r.Description)
	}
	for _, a := range e.Anomalies {
		fmt.Fprintf(&sb, "\n- [%s] %s: %s", a.Severity, a.Type, a.Description)
	}
	return sb.String()
}

func title(id string) string {
	words := strings.Split(strings.ToLower(id), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if w == "fatf" || w == "sim" {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func score(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func window(d time.Duration) string {
	if d == time.Hour {
		return "1 hour"
	}
	return d.String()
}

func joinKinds(kinds []model.SignalKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}
