package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/httputil"
)

// AccessHandlers handles access-record HTTP requests. Reading the record set
// of a list requires viewer access; mutating it requires ownership.
type AccessHandlers struct {
	access *access.Service
	gate   access.Checker
}

// NewAccessHandlers creates a new AccessHandlers
func NewAccessHandlers(accessService *access.Service, gate access.Checker) *AccessHandlers {
	return &AccessHandlers{access: accessService, gate: gate}
}

// RegisterRoutes registers access-record routes
func (h *AccessHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lists/{id}/access", h.ListForList).Methods("GET")
	router.HandleFunc("/lists/{id}/access", h.Grant).Methods("POST")
	router.HandleFunc("/lists/{id}/access/{user_id}", h.ChangeRole).Methods("PUT")
	router.HandleFunc("/lists/{id}/access/{user_id}", h.Revoke).Methods("DELETE")
	router.HandleFunc("/users/me/access", h.ListForSelf).Methods("GET")
}

// ListForList handles GET /lists/{id}/access
func (h *AccessHandlers) ListForList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := access.Require(r.Context(), h.gate, listID, userID, access.LevelViewer, access.FromList); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	records, err := h.access.GetFromList(r.Context(), listID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

// ListForSelf handles GET /users/me/access
func (h *AccessHandlers) ListForSelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	records, err := h.access.GetFromUser(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

// Grant handles POST /lists/{id}/access
func (h *AccessHandlers) Grant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		UserID string      `json:"user_id"`
		Role   access.Role `json:"role"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UserID, "user_id") {
		return
	}

	if err := access.Require(r.Context(), h.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	record, err := h.access.Grant(r.Context(), access.Record{
		UserID: req.UserID,
		ListID: listID,
		Role:   req.Role,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, record)
}

// ChangeRole handles PUT /lists/{id}/access/{user_id}
func (h *AccessHandlers) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathStringOrError(w, r, "user_id")
	if !ok {
		return
	}

	var req struct {
		Role access.Role `json:"role"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := access.Require(r.Context(), h.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	record, err := h.access.ChangeRole(r.Context(), access.Record{
		UserID: targetID,
		ListID: listID,
		Role:   req.Role,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// Revoke handles DELETE /lists/{id}/access/{user_id}
func (h *AccessHandlers) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathStringOrError(w, r, "user_id")
	if !ok {
		return
	}

	if err := access.Require(r.Context(), h.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	removed, err := h.access.Revoke(r.Context(), targetID, listID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !removed {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "no access record for user")
		return
	}
	httputil.WriteNoContent(w)
}
