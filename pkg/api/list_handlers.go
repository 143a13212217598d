package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/lists"
)

// ListHandlers handles todo-list HTTP requests
type ListHandlers struct {
	lists *lists.Service
}

// NewListHandlers creates a new ListHandlers
func NewListHandlers(listService *lists.Service) *ListHandlers {
	return &ListHandlers{lists: listService}
}

// RegisterRoutes registers list routes
func (h *ListHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lists", h.Create).Methods("POST")
	router.HandleFunc("/lists", h.List).Methods("GET")
	router.HandleFunc("/lists/{id}", h.Get).Methods("GET")
	router.HandleFunc("/lists/{id}", h.Update).Methods("PUT")
	router.HandleFunc("/lists/{id}", h.Delete).Methods("DELETE")
	router.HandleFunc("/lists/{id}/transfer", h.Transfer).Methods("POST")
}

type listRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create handles POST /lists
func (h *ListHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req listRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	list, err := h.lists.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, list)
}

// List handles GET /lists
func (h *ListHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.lists.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Get handles GET /lists/{id}
func (h *ListHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	list, err := h.lists.Get(r.Context(), userID, listID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// Update handles PUT /lists/{id}
func (h *ListHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req listRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	list, err := h.lists.Update(r.Context(), userID, lists.List{
		ID:          listID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// Delete handles DELETE /lists/{id}
func (h *ListHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.lists.Delete(r.Context(), userID, listID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Transfer handles POST /lists/{id}/transfer
func (h *ListHandlers) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		NewOwnerID string `json:"new_owner_id"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewOwnerID, "new_owner_id") {
		return
	}

	list, err := h.lists.TransferOwnership(r.Context(), listID, userID, req.NewOwnerID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}
