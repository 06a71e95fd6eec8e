package api

import (
	"errors"
	"net/http"
	"time"

	service "github.com/okian/netrisk/internal/app"
	"github.com/okian/netrisk/pkg/json"
	"github.com/okian/netrisk/pkg/logger"
)

// evaluateRequest mirrors the OpenAPI schema for POST /v1/evaluate.
type evaluateRequest struct {
	RequestID        string   `json:"request_id"`
	TransactionID    string   `json:"transaction_id"`
	Identifier       string   `json:"identifier"`
	Amount           float64  `json:"amount"`
	ModelProbability *float64 `json:"model_probability"`
	Merchant         string   `json:"merchant"`
	PaymentMethod    string   `json:"payment_method"`
	HomeCountry      string   `json:"home_country"`
	Timestamp        string   `json:"timestamp"`
}

func (e evaluateRequest) toService() (service.EvaluateRequest, error) {
	req := service.EvaluateRequest{
		RequestID:        e.RequestID,
		TransactionID:    e.TransactionID,
		Identifier:       e.Identifier,
		Amount:           e.Amount,
		ModelProbability: e.ModelProbability,
		Merchant:         e.Merchant,
		PaymentMethod:    e.PaymentMethod,
		HomeCountry:      e.HomeCountry,
	}
	if e.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			return req, &service.ValidationError{Field: "timestamp", Message: "must be RFC3339"}
		}
		req.Timestamp = ts
	}
	return req, nil
}

type evaluateResponse struct {
	service.Result
	AuditError string `json:"audit_error,omitempty"`
}

// EvaluateHandler handles evaluation requests.
type EvaluateHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps Dependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps, log: logger.Get().Named("api")}
}

// HandleEvaluate handles POST /v1/evaluate requests. A result whose audit
// append failed is still returned with 200 and audited set to false.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	var body evaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toService()
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get(RequestIDHeader)
	}

	res, err := h.deps.Evaluate(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, evaluateResponse{Result: res})
	case errors.Is(err, service.ErrAuditWrite):
		h.log.Warn(r.Context(), "returning unaudited result",
			logger.String("transaction_id", res.TransactionID),
			logger.Error(err),
		)
		writeJSON(w, http.StatusOK, evaluateResponse{Result: res, AuditError: err.Error()})
	default:
		writeServiceError(w, op, err)
	}
}
