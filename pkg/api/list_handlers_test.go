package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/lists"
)

func TestListCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := register(t, srv, "alice")

	listID := createList(t, srv, alice, "groceries")

	t.Run("get", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d", listID), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list lists.List
		decodeBody(t, rec, &list)
		assert.Equal(t, "groceries", list.Title)
		assert.Equal(t, "alice", list.OwnerID)
	})

	t.Run("list for user", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/lists", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result []lists.List
		decodeBody(t, rec, &result)
		assert.Len(t, result, 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/v1/lists/%d", listID), alice,
			map[string]string{"title": "weekend groceries"})
		require.Equal(t, http.StatusOK, rec.Code)

		var list lists.List
		decodeBody(t, rec, &list)
		assert.Equal(t, "weekend groceries", list.Title)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/v1/lists/%d", listID), alice,
			map[string]string{"title": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stranger cannot see the list", func(t *testing.T) {
		bob := register(t, srv, "bob")
		rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d", listID), bob, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/v1/lists/%d", listID), alice, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d", listID), alice, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListTransfer(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")
	listID := createList(t, srv, alice, "shared")

	transferPath := fmt.Sprintf("/api/v1/lists/%d/transfer", listID)

	t.Run("target must already have access", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, transferPath, alice,
			map[string]string{"new_owner_id": "bob"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	// Grant bob editor access so the transfer can proceed.
	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/lists/%d/access", listID), alice,
		map[string]string{"user_id": "bob", "role": "editor"})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("non-owner cannot transfer", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, transferPath, bob,
			map[string]string{"new_owner_id": "bob"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner transfers to bob", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, transferPath, alice,
			map[string]string{"new_owner_id": "bob"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var list lists.List
		decodeBody(t, rec, &list)
		assert.Equal(t, "bob", list.OwnerID)

		// Alice keeps editor access, bob holds the single owner record.
		rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d/access", listID), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var records []access.Record
		decodeBody(t, rec, &records)
		roles := map[string]access.Role{}
		for _, rec := range records {
			roles[rec.UserID] = rec.Role
		}
		assert.Equal(t, access.RoleOwner, roles["bob"])
		assert.Equal(t, access.RoleEditor, roles["alice"])
	})
}

func TestAuditTrail(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := register(t, srv, "alice")
	register(t, srv, "bob")
	listID := createList(t, srv, alice, "audited")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/lists/%d/access", listID), alice,
		map[string]string{"user_id": "bob", "role": "viewer"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d/audit", listID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access.granted")
}
