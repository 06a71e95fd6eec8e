// Package model contains domain models passed between layers.
package model

import "time"

// Transaction is a payment submitted for risk evaluation.
// It is immutable once the service has accepted it.
type Transaction struct {
	ID            string    `json:"id"`
	Identifier    string    `json:"identifier"` // normalized E.164 phone number
	Amount        float64   `json:"amount"`
	Merchant      string    `json:"merchant,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	HomeCountry   string    `json:"home_country,omitempty"` // KYC country; empty disables the mismatch check
	Timestamp     time.Time `json:"timestamp"`
}

// Decision is the three-way outcome of an evaluation.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionStepUp Decision = "STEP_UP"
	DecisionReject Decision = "REJECT"
)

// RiskLevel is the human label attached to a decision.
func (d Decision) RiskLevel() string {
	switch d {
	case DecisionReject:
		return "High Risk"
	case DecisionStepUp:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}

// Recommendation is the operator guidance attached to a decision.
func (d Decision) Recommendation() string {
	switch d {
	case DecisionReject:
		return "Transaction blocked. Manual review required."
	case DecisionStepUp:
		return "Additional verification required. Implement step-up authentication."
	default:
		return "Transaction approved. Proceed with standard processing."
	}
}

// CountryRiskLevel classifies a country against the sanctions/FATF list.
type CountryRiskLevel string

const (
	CountryNormal      CountryRiskLevel = "normal"
	CountryWatchlisted CountryRiskLevel = "watchlisted"
	CountryHighRisk    CountryRiskLevel = "high_risk"
)
