package api

import (
	"context"
	"net/http"
	"time"
)

// StatsProvider exposes service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler wraps provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

// HandleStats writes a fresh snapshot stamped with generatedAt. Stats are
// never cached by clients.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	src := h.provider.GetStats(r.Context())
	out := make(map[string]interface{}, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	out["generatedAt"] = h.now().UTC().Format(time.RFC3339)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}
