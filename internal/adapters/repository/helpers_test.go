package repository

import (
	"fmt"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func record(i int, identifier string) model.AuditRecord {
	return model.AuditRecord{
		ID: fmt.Sprintf("rec-%03d", i),
		Transaction: model.Transaction{
			ID:         fmt.Sprintf("tx-%03d", i),
			Identifier: identifier,
			Amount:     float64(100 * (i + 1)),
			Timestamp:  baseTime.Add(time.Duration(i) * time.Minute),
		},
		Breakdown: model.ScoringBreakdown{
			FinalScore: 40,
			Decision:   model.DecisionStepUp,
			TriggeredRules: []model.TriggeredRule{
				{ID: "SIM_SWAP_DETECTED", Points: 40, Description: "SIM card changed recently"},
			},
		},
		Explanation: model.Explanation{Summary: "Medium Risk", Factors: []string{"SIM swap"}},
		CreatedAt:   baseTime.Add(time.Duration(i) * time.Minute),
	}
}
