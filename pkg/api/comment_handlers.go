package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/comments"
	"github.com/platinummonkey/taskhive/pkg/httputil"
)

// CommentHandlers handles comment HTTP requests
type CommentHandlers struct {
	comments *comments.Service
}

// NewCommentHandlers creates a new CommentHandlers
func NewCommentHandlers(commentService *comments.Service) *CommentHandlers {
	return &CommentHandlers{comments: commentService}
}

// RegisterRoutes registers comment routes
func (h *CommentHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tasks/{id}/comments", h.List).Methods("GET")
	router.HandleFunc("/tasks/{id}/comments", h.Add).Methods("POST")
	router.HandleFunc("/tasks/{id}/comments/{comment_id}", h.Update).Methods("PUT")
	router.HandleFunc("/tasks/{id}/comments/{comment_id}", h.Delete).Methods("DELETE")
}

type commentRequest struct {
	Content string `json:"content"`
}

// List handles GET /tasks/{id}/comments
func (h *CommentHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := h.comments.ListForTask(r.Context(), userID, taskID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Add handles POST /tasks/{id}/comments
func (h *CommentHandlers) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	comment, err := h.comments.Add(r.Context(), userID, taskID, req.Content)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, comment)
}

// Update handles PUT /tasks/{id}/comments/{comment_id}
func (h *CommentHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, commentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), userID, commentID, taskID, req.Content)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, comment)
}

// Delete handles DELETE /tasks/{id}/comments/{comment_id}
func (h *CommentHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, commentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), userID, commentID, taskID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CommentHandlers) pathIDs(w http.ResponseWriter, r *http.Request) (userID string, taskID, commentID int64, ok bool) {
	userID, ok = requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok = httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	commentID, ok = httputil.ParsePathInt64OrError(w, r, "comment_id")
	return
}
