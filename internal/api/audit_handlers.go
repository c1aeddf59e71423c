package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/audit"
)

// AuditHandler exposes the activity log written by the audit middleware.
type AuditHandler struct {
	errorResponder
	Service *audit.Service
}

func NewAuditHandler(svc *audit.Service, log *zap.Logger) *AuditHandler {
	return &AuditHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *AuditHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/activitylog/Pagination", Tag: "activitylog", Summary: "Page through the API activity log", Query: []string{"pageNumber", "pageSize"}, Handler: h.Pagination},
	}
}

// GET /api/activitylog/Pagination
func (h *AuditHandler) Pagination(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := h.Service.Page(r.Context(), number, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
