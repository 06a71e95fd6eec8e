package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/adapters/repository"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/internal/domain/phone"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
	"github.com/okian/netrisk/pkg/traces"
)

// EvaluateRequest is one transaction submitted for scoring.
type EvaluateRequest struct {
	RequestID        string    `json:"request_id,omitempty"`
	TransactionID    string    `json:"transaction_id,omitempty"`
	Identifier       string    `json:"identifier"`
	Amount           float64   `json:"amount"`
	ModelProbability *float64  `json:"model_probability"`
	Merchant         string    `json:"merchant,omitempty"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	HomeCountry      string    `json:"home_country,omitempty"`
	Timestamp        time.Time `json:"timestamp,omitempty"`
}

// Result is the outcome of one evaluation.
type Result struct {
	TransactionID  string                 `json:"transaction_id"`
	Identifier     string                 `json:"identifier"`
	RecordID       string                 `json:"record_id"`
	Sequence       int64                  `json:"sequence,omitempty"`
	Decision       model.Decision         `json:"decision"`
	RiskLevel      string                 `json:"risk_level"`
	Recommendation string                 `json:"recommendation"`
	FinalScore     float64                `json:"final_score"`
	WeightedScore  float64                `json:"weighted_score"`
	ConditionScore float64                `json:"condition_score"`
	TriggeredRules []model.TriggeredRule  `json:"triggered_rules"`
	Breakdown      model.ScoringBreakdown `json:"breakdown"`
	Signals        model.NetworkSignals   `json:"signals"`
	APIMode        string                 `json:"api_mode"`
	Explanation    model.Explanation      `json:"explanation"`
	Audited        bool                   `json:"audited"`
	ProcessingMS   float64                `json:"processing_ms"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Evaluate scores a transaction and appends its audit record. When the
// append fails the complete result is still returned, with Audited false and
// an error wrapping ErrAuditWrite.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (Result, error) {
	start := time.Now()
	if !s.isStarted() {
		return Result{}, ErrNotStarted
	}

	tx, probability, err := s.validate(req)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationError(ve.Field)
		}
		return Result{}, err
	}

	if req.RequestID != "" {
		ctx = logger.WithRequestID(ctx, req.RequestID)
		if s.guard.SeenAndRecord(ctx, req.RequestID) {
			metrics.RecordDuplicateRequest()
			s.logger.Debug(ctx, "duplicate request rejected", logger.String("transaction_id", tx.ID))
			return Result{}, fmt.Errorf("%w: %s", ErrDuplicateRequest, req.RequestID)
		}
	}

	ctx, span := traces.StartSpan(ctx, "service.evaluate", traces.TransactionID(tx.ID))
	defer span.End()

	signals := s.gateway.Collect(ctx, tx)

	history, err := s.store.History(ctx, tx.Identifier, repository.Query{Limit: s.historyLimit})
	if err != nil {
		s.logger.Warn(ctx, "history lookup failed, anomalies skipped",
			logger.String("identifier", tx.Identifier),
			logger.Error(err),
		)
		history = nil
	}

	breakdown := s.engine.Score(probability, signals, tx)

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	exp, rec, auditErr := s.builder.Explain(auditCtx, tx, signals, breakdown, history)
	cancel()

	res := Result{
		TransactionID:  tx.ID,
		Identifier:     tx.Identifier,
		RecordID:       rec.ID,
		Sequence:       rec.Sequence,
		Decision:       breakdown.Decision,
		RiskLevel:      breakdown.Decision.RiskLevel(),
		Recommendation: breakdown.Decision.Recommendation(),
		FinalScore:     breakdown.FinalScore,
		WeightedScore:  breakdown.WeightedScore,
		ConditionScore: breakdown.ConditionScore,
		TriggeredRules: breakdown.TriggeredRules,
		Breakdown:      breakdown,
		Signals:        signals,
		APIMode:        signals.APIMode(),
		Explanation:    exp,
		Audited:        auditErr == nil,
		Timestamp:      rec.CreatedAt,
	}

	metrics.RecordEvaluation(string(breakdown.Decision), breakdown.FinalScore)
	for _, r := range breakdown.TriggeredRules {
		metrics.RecordRuleTrigger(r.ID)
	}
	span.SetAttributes(traces.Decision(string(breakdown.Decision)), traces.FinalScore(breakdown.FinalScore))

	if breakdown.Decision == model.DecisionReject {
		s.publish(ctx, notify.HighRisk(rec))
	}

	res.ProcessingMS = float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordEvaluateLatency(res.ProcessingMS)

	if auditErr != nil {
		if req.RequestID != "" {
			s.guard.Forget(ctx, req.RequestID)
		}
		span.RecordError(auditErr)
		s.logger.Error(ctx, "evaluation not audited",
			logger.String("transaction_id", tx.ID),
			logger.String("decision", string(breakdown.Decision)),
			logger.Error(auditErr),
		)
		return res, auditErr
	}

	s.logger.Info(ctx, "transaction evaluated",
		logger.String("transaction_id", tx.ID),
		logger.String("decision", string(breakdown.Decision)),
		logger.Float64("final_score", breakdown.FinalScore),
		logger.Int64("sequence", rec.Sequence),
		logger.String("api_mode", res.APIMode),
	)
	return res, nil
}

// validate checks the request and builds the transaction. Checks run in a
// fixed order so the first failing field is reported.
func (s *Service) validate(req EvaluateRequest) (model.Transaction, float64, error) {
	if req.ModelProbability == nil {
		return model.Transaction{}, 0, invalid("model_probability", "is required")
	}
	p := *req.ModelProbability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return model.Transaction{}, 0, invalid("model_probability", "must be between 0 and 1")
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return model.Transaction{}, 0, invalid("amount", "must be greater than 0")
	}
	if req.Identifier == "" {
		return model.Transaction{}, 0, invalid("identifier", "is required")
	}
	id, err := phone.Normalize(req.Identifier, s.countryCode)
	if err != nil {
		return model.Transaction{}, 0, invalid("identifier", err.Error())
	}

	tx := model.Transaction{
		ID:            req.TransactionID,
		Identifier:    id,
		Amount:        req.Amount,
		Merchant:      req.Merchant,
		PaymentMethod: req.PaymentMethod,
		HomeCountry:   req.HomeCountry,
		Timestamp:     req.Timestamp,
	}
	if tx.ID == "" {
		tx.ID = "TXN-" + s.nextID()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	tx.Timestamp = tx.Timestamp.UTC()
	return tx, p, nil
}

// publish sends an alert in the background. Failures are logged only.
func (s *Service) publish(ctx context.Context, a notify.Alert) {
	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
		defer cancel()
		if err := s.notifier.Notify(actx, a); err != nil {
			s.logger.Warn(actx, "alert not published",
				logger.String("kind", a.Kind),
				logger.String("record_id", a.RecordID),
				logger.Error(err),
			)
		}
	}()
}
