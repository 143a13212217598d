package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/invites"
)

// InviteHandlers handles invitation HTTP requests
type InviteHandlers struct {
	invites *invites.Service
}

// NewInviteHandlers creates a new InviteHandlers
func NewInviteHandlers(inviteService *invites.Service) *InviteHandlers {
	return &InviteHandlers{invites: inviteService}
}

// RegisterRoutes registers invitation routes
func (h *InviteHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lists/{id}/invites", h.Create).Methods("POST")
	router.HandleFunc("/lists/{id}/invites", h.ListForList).Methods("GET")
	router.HandleFunc("/invites", h.ListForSelf).Methods("GET")
	router.HandleFunc("/invites/{id}/accept", h.Accept).Methods("POST")
	router.HandleFunc("/invites/{id}/reject", h.Reject).Methods("POST")
	router.HandleFunc("/invites/{id}", h.Delete).Methods("DELETE")
}

// Create handles POST /lists/{id}/invites
func (h *InviteHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Emails  []string `json:"emails"`
		Message string   `json:"message"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	created, err := h.invites.Create(r.Context(), userID, listID, req.Emails, req.Message)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, created)
}

// ListForList handles GET /lists/{id}/invites
func (h *InviteHandlers) ListForList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := h.invites.ListForList(r.Context(), userID, listID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// ListForSelf handles GET /invites
func (h *InviteHandlers) ListForSelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.invites.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Accept handles POST /invites/{id}/accept
func (h *InviteHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

// Reject handles POST /invites/{id}/reject
func (h *InviteHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *InviteHandlers) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	inviteID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.invites.Respond(r.Context(), userID, inviteID, accept); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Delete handles DELETE /invites/{id}
func (h *InviteHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	inviteID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.invites.Delete(r.Context(), userID, inviteID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
