package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/contextkeys"
	"github.com/platinummonkey/taskhive/pkg/middleware"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
)

func TestAuthMiddleware(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	store := auth.NewStore(db)

	created, err := store.Create(context.Background(), "alice", "test", nil)
	require.NoError(t, err)

	var gotUserID string
	handler := middleware.NewAuthMiddleware(store).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = contextkeys.GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/lists", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token passes and sets user id", func(t *testing.T) {
		rec := do("Bearer " + created.Plaintext)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", gotUserID)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("malformed header is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Token abc").Code)
	})

	t.Run("unknown token is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer thv_bogus").Code)
	})

	t.Run("revoked token is 401", func(t *testing.T) {
		require.NoError(t, store.Revoke(context.Background(), "alice", created.Token.ID))
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+created.Plaintext).Code)
	})
}
