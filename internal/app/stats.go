package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

const summaryWindow = 24 * time.Hour

// AuditStats aggregates audit records.
type AuditStats struct {
	Since              time.Time              `json:"since,omitempty"`
	Total              int                    `json:"total"`
	ByDecision         map[model.Decision]int `json:"by_decision"`
	SimSwaps           int                    `json:"sim_swaps"`
	LocationMismatches int                    `json:"location_mismatches"`
	Roaming            int                    `json:"roaming"`
	OfflineDevices     int                    `json:"offline_devices"`
	SimulatedSignals   int                    `json:"simulated_signals"`
	SimulatedShare     float64                `json:"simulated_share"`
	AverageScore       float64                `json:"average_score"`
}

// AuditStats aggregates every record created at or after since. A zero
// since covers the whole log.
func (s *Service) AuditStats(ctx context.Context, since time.Time) (AuditStats, error) {
	if !s.isStarted() {
		return AuditStats{}, ErrNotStarted
	}
	return s.auditStats(ctx, since)
}

func (s *Service) auditStats(ctx context.Context, since time.Time) (AuditStats, error) {
	st := AuditStats{
		Since: since,
		ByDecision: map[model.Decision]int{
			model.DecisionAccept: 0,
			model.DecisionStepUp: 0,
			model.DecisionReject: 0,
		},
	}
	var scoreSum float64
	err := s.store.Scan(ctx, func(rec model.AuditRecord) bool {
		if !since.IsZero() && rec.CreatedAt.Before(since) {
			return true
		}
		st.Total++
		st.ByDecision[rec.Breakdown.Decision]++
		scoreSum += rec.Breakdown.FinalScore
		sig := rec.Signals
		if sig.SimSwap.Swapped {
			st.SimSwaps++
		}
		if !sig.Location.Verified {
			st.LocationMismatches++
		}
		if sig.Roaming.Roaming {
			st.Roaming++
		}
		if sig.Connectivity.Offline() {
			st.OfflineDevices++
		}
		st.SimulatedSignals += len(sig.Simulated())
		return true
	})
	if err != nil {
		return AuditStats{}, fmt.Errorf("scan audit log: %w", err)
	}
	if st.Total > 0 {
		st.AverageScore = round2(scoreSum / float64(st.Total))
		st.SimulatedShare = round2(float64(st.SimulatedSignals) / float64(st.Total*len(model.Kinds())))
	}
	return st, nil
}

// RunSummary aggregates the last 24 hours, logs the result and publishes
// it as a daily summary alert.
func (s *Service) RunSummary(ctx context.Context) error {
	now := s.now().UTC()
	st, err := s.auditStats(ctx, now.Add(-summaryWindow))
	if err != nil {
		return err
	}
	metrics.RecordSummaryRun()

	s.logger.Info(ctx, "daily summary",
		logger.Int("total", st.Total),
		logger.Int("rejected", st.ByDecision[model.DecisionReject]),
		logger.Int("step_up", st.ByDecision[model.DecisionStepUp]),
		logger.Int("accepted", st.ByDecision[model.DecisionAccept]),
		logger.Int("sim_swaps", st.SimSwaps),
		logger.Float64("average_score", st.AverageScore),
	)

	a := notify.Alert{
		Kind: notify.KindDailySummary,
		Key:  "summary:" + now.Format("2006-01-02"),
		Message: fmt.Sprintf("%d transactions in the last 24h: %d rejected, %d step-up, %d accepted",
			st.Total, st.ByDecision[model.DecisionReject], st.ByDecision[model.DecisionStepUp],
			st.ByDecision[model.DecisionAccept]),
		Details:   st,
		CreatedAt: now,
	}
	if err := s.notifier.Notify(ctx, a); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
