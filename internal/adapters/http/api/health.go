package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/netrisk/internal/health"
	"github.com/okian/netrisk/pkg/metrics"
)

type readyResponse struct {
	Status string          `json:"status"`
	Checks []health.Status `json:"checks"`
}

// HealthHandler serves liveness metrics and readiness checks.
type HealthHandler struct {
	ready   ReadinessChecker
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ready ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		ready:   ready,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests by serving Prometheus metrics
// from the service registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleReady handles GET /readyz requests. It answers 503 when any
// dependency check fails.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil {
		writeJSON(w, http.StatusOK, readyResponse{Status: "ok", Checks: []health.Status{}})
		return
	}
	ok, checks := h.ready.CheckAll(r.Context())
	if checks == nil {
		checks = []health.Status{}
	}
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "unavailable", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: "ok", Checks: checks})
}
