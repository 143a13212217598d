package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/users"
)

// UserHandlers handles user directory and API token requests
type UserHandlers struct {
	users  *users.Service
	tokens *auth.Store
}

// NewUserHandlers creates a new UserHandlers
func NewUserHandlers(userService *users.Service, tokenStore *auth.Store) *UserHandlers {
	return &UserHandlers{users: userService, tokens: tokenStore}
}

// RegisterRoutes registers the authenticated user and token routes.
// Register itself is mounted outside the auth middleware by the server.
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users/me", h.Me).Methods("GET")
	router.HandleFunc("/users/me", h.UpdateMe).Methods("PUT")
	router.HandleFunc("/users/lookup", h.Lookup).Methods("GET")

	router.HandleFunc("/tokens", h.CreateToken).Methods("POST")
	router.HandleFunc("/tokens", h.ListTokens).Methods("GET")
	router.HandleFunc("/tokens/{id}", h.RevokeToken).Methods("DELETE")
}

type userRequest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Register handles POST /users. It creates the directory entry and issues a
// bootstrap token so the new user can authenticate further requests.
func (h *UserHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.ID, "id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	user, err := h.users.Create(r.Context(), users.User{
		ID:       req.ID,
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	token, err := h.tokens.Create(r.Context(), user.ID, "bootstrap", nil)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Me handles GET /users/me
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// UpdateMe handles PUT /users/me
func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req userRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	user, err := h.users.Update(r.Context(), users.User{
		ID:       userID,
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// Lookup handles GET /users/lookup?email=
func (h *UserHandlers) Lookup(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	email := httputil.ParseQueryString(r, "email", "")
	if !httputil.RequireNonEmpty(w, email, "email") {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// CreateToken handles POST /tokens
func (h *UserHandlers) CreateToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name      string     `json:"name"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.tokens.Create(r.Context(), userID, req.Name, req.ExpiresAt)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, result)
}

// ListTokens handles GET /tokens
func (h *UserHandlers) ListTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.tokens.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// RevokeToken handles DELETE /tokens/{id}
func (h *UserHandlers) RevokeToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tokenID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.tokens.Revoke(r.Context(), userID, tokenID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
