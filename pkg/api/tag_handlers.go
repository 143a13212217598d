package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/tags"
)

// TagHandlers handles tag HTTP requests
type TagHandlers struct {
	tags *tags.Service
}

// NewTagHandlers creates a new TagHandlers
func NewTagHandlers(tagService *tags.Service) *TagHandlers {
	return &TagHandlers{tags: tagService}
}

// RegisterRoutes registers tag routes
func (h *TagHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lists/{id}/tags", h.List).Methods("GET")
	router.HandleFunc("/lists/{id}/tags", h.Create).Methods("POST")
	router.HandleFunc("/lists/{id}/tags/{name}", h.Delete).Methods("DELETE")
}

// List handles GET /lists/{id}/tags
func (h *TagHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := h.tags.ListForList(r.Context(), userID, listID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Create handles POST /lists/{id}/tags
func (h *TagHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Tag string `json:"tag"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tag, err := h.tags.Create(r.Context(), userID, listID, req.Tag)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, tag)
}

// Delete handles DELETE /lists/{id}/tags/{name}
func (h *TagHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	if err := h.tags.Delete(r.Context(), userID, listID, name); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
