// Package notify publishes operator alerts: high-risk decisions and the
// daily summary.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
)

// Alert kinds.
const (
	KindHighRisk     = "high_risk_transaction"
	KindDailySummary = "daily_summary"
)

// Alert is one published notification.
type Alert struct {
	Kind          string         `json:"kind"`
	Key           string         `json:"key"`
	RecordID      string         `json:"record_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Decision      model.Decision `json:"decision,omitempty"`
	FinalScore    float64        `json:"final_score,omitempty"`
	Rules         []string       `json:"rules,omitempty"`
	Message       string         `json:"message"`
	Details       any            `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// HighRisk builds the alert for a rejected transaction.
func HighRisk(rec model.AuditRecord) Alert {
	rules := make([]string, 0, len(rec.Breakdown.TriggeredRules))
	for _, r := range rec.Breakdown.TriggeredRules {
		rules = append(rules, r.ID)
	}
	return Alert{
		Kind:          KindHighRisk,
		Key:           rec.Transaction.Identifier,
		RecordID:      rec.ID,
		TransactionID: rec.Transaction.ID,
		Decision:      rec.Breakdown.Decision,
		FinalScore:    rec.Breakdown.FinalScore,
		Rules:         rules,
		Message: fmt.Sprintf("High risk transaction %s from %s: %.2f/100",
			rec.Transaction.ID, rec.Transaction.Identifier, rec.Breakdown.FinalScore),
		CreatedAt: rec.CreatedAt,
	}
}

// Notifier publishes alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
	Close() error
}
