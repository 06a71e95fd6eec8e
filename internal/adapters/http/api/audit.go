package api

import (
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/netrisk/internal/app"
	"github.com/okian/netrisk/internal/domain/model"
)

type auditResponse struct {
	Identifier string              `json:"identifier"`
	Count      int                 `json:"count"`
	Records    []model.AuditRecord `json:"records"`
}

// AuditHandler handles audit history requests.
type AuditHandler struct {
	deps Dependencies
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(deps Dependencies) *AuditHandler {
	return &AuditHandler{deps: deps}
}

// HandleGetAudit handles GET /v1/audit/{identifier} requests.
// Optional query parameters: from and to (RFC3339) and limit.
func (h *AuditHandler) HandleGetAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_audit"
	identifier := r.PathValue("identifier")
	q := r.URL.Query()

	from, err := parseTime(q.Get("from"), "from")
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	to, err := parseTime(q.Get("to"), "to")
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeServiceError(w, op, &service.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
	}

	records, err := h.deps.History(r.Context(), identifier, from, to, limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if records == nil {
		records = []model.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, auditResponse{Identifier: identifier, Count: len(records), Records: records})
}

func parseTime(v, field string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Message: "must be RFC3339"}
	}
	return t, nil
}
