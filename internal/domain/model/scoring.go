package model

import (
	"strconv"
	"time"
)

// RiskFactors holds the per-factor inputs to the weighted layer.
// Model is in [0,1]; the network factors are 0 or 1.
type RiskFactors struct {
	Model       float64 `json:"model"`
	Location    float64 `json:"location"`
	SimSwap     float64 `json:"sim_swap"`
	Roaming     float64 `json:"roaming"`
	CountryRisk float64 `json:"country_risk"`
}

// TriggeredRule is one fired entry of the condition rule table.
type TriggeredRule struct {
	ID          string  `json:"id"`
	Points      float64 `json:"points"`
	Description string  `json:"description"`
}

// ScoringBreakdown is the full output of the hybrid scoring engine.
// FinalScore is always max(WeightedScore, ConditionScore).
type ScoringBreakdown struct {
	ModelProbability float64          `json:"model_probability"`
	ModelScore       float64          `json:"model_score"`
	Factors          RiskFactors      `json:"factors"`
	CountryRisk      CountryRiskLevel `json:"country_risk"`
	WeightedScore    float64          `json:"weighted_score"`
	ConditionScore   float64          `json:"condition_score"`
	FinalScore       float64          `json:"final_score"`
	Decision         Decision         `json:"decision"`
	TriggeredRules   []TriggeredRule  `json:"triggered_rules"`
}

// Fired reports whether the rule with the given id fired.
func (b ScoringBreakdown) Fired(id string) bool {
	for _, r := range b.TriggeredRules {
		if r.ID == id {
			return true
		}
	}
	return false
}

// ExplainedRule is a triggered rule rendered for operators.
type ExplainedRule struct {
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// Anomaly is a descriptive observation drawn from transaction history.
type Anomaly struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Explanation is the human-readable account of a decision.
type Explanation struct {
	Summary   string          `json:"summary"`
	Factors   []string        `json:"factors"`
	Rules     []ExplainedRule `json:"rules"`
	Anomalies []Anomaly       `json:"anomalies"`
	Narrative string          `json:"narrative"`
}

// AuditRecord is one append-only entry of the audit log.
type AuditRecord struct {
	ID          string           `json:"id"`
	Sequence    int64            `json:"sequence"`
	Transaction Transaction      `json:"transaction"`
	Signals     NetworkSignals   `json:"signals"`
	Breakdown   ScoringBreakdown `json:"breakdown"`
	Explanation Explanation      `json:"explanation"`
	CreatedAt   time.Time        `json:"created_at"`
}

func formatCount(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
