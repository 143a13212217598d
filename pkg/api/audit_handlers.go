package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/httputil"
)

// AuditHandlers exposes the audit trail of a list to its owner.
type AuditHandlers struct {
	audit *audit.DBRecorder
	gate  access.Checker
}

// NewAuditHandlers creates a new AuditHandlers
func NewAuditHandlers(recorder *audit.DBRecorder, gate access.Checker) *AuditHandlers {
	return &AuditHandlers{audit: recorder, gate: gate}
}

// RegisterRoutes registers audit routes
func (h *AuditHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lists/{id}/audit", h.List).Methods("GET")
}

// List handles GET /lists/{id}/audit
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := access.Require(r.Context(), h.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	events, err := h.audit.List(r.Context(), listID, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, events)
}
