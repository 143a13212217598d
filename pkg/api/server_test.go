package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/api"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/comments"
	"github.com/platinummonkey/taskhive/pkg/invites"
	"github.com/platinummonkey/taskhive/pkg/lists"
	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
	"github.com/platinummonkey/taskhive/pkg/tags"
	"github.com/platinummonkey/taskhive/pkg/tasks"
	"github.com/platinummonkey/taskhive/pkg/users"
)

func newTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	db := storagetest.OpenDB(t)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	auditor := audit.NewDBRecorder(db, logger)

	accessSvc := access.NewService(db, auditor, logger)
	gate := access.NewGate(accessSvc)

	userSvc, err := users.NewService(users.NewStore(db))
	require.NoError(t, err)

	srv := api.NewServer(api.Services{
		Users:    userSvc,
		Lists:    lists.NewService(db, gate, auditor),
		Tasks:    tasks.NewService(db, gate),
		Comments: comments.NewService(db, gate),
		Tags:     tags.NewService(db, gate),
		Invites:  invites.NewService(db, gate, userSvc, auditor),
		Access:   accessSvc,
		Tokens:   auth.NewStore(db),
		Audit:    auditor,
	}, gate, nil, logger)

	return srv, db
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

// register creates a user through the public endpoint and returns the
// bootstrap token plaintext.
func register(t *testing.T, srv http.Handler, id string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/users", "", map[string]string{
		"id":    id,
		"email": id + "@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token struct {
			Plaintext string `json:"plaintext"`
		} `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token.Plaintext)
	return resp.Token.Plaintext
}

// createList returns the new list's id.
func createList(t *testing.T, srv http.Handler, token, title string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/lists", token, map[string]string{
		"title": title,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var list lists.List
	decodeBody(t, rec, &list)
	return list.ID
}

func TestRegisterAndMe(t *testing.T) {
	srv, _ := newTestServer(t)
	token := register(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user users.User
	decodeBody(t, rec, &user)
	assert.Equal(t, "alice", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/users", "", map[string]string{
		"id":    "alice2",
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/lists", "/api/v1/tasks", "/api/v1/invites"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/lists", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestTokenLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	token := register(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tokens", token, map[string]string{"name": "ci"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created auth.CreateResult
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.Plaintext)

	// The new token authenticates.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tokens", created.Plaintext, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens []auth.Token
	decodeBody(t, rec, &tokens)
	assert.Len(t, tokens, 2) // bootstrap + ci

	// Revoke it; it stops working, the bootstrap token still does.
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/v1/tokens/%d", created.Token.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/api/v1/tokens", created.Plaintext, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/api/v1/tokens", token, nil).Code)
}
