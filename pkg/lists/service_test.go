package lists_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/lists"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
)

func newService(t *testing.T) (*lists.Service, *sql.DB, context.Context) {
	t.Helper()
	db := storagetest.OpenDB(t)
	gate := access.NewGate(access.NewService(db, nil, nil))
	return lists.NewService(db, gate, nil), db, context.Background()
}

func TestCreate(t *testing.T) {
	svc, db, ctx := newService(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")

	created, err := svc.Create(ctx, "alice", "groceries", "weekly shop")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.OwnerID)

	// Creator holds the owner record.
	accessSvc := access.NewService(db, nil, nil)
	rec, err := accessSvc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleOwner, rec.Role)

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", "   ", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})
}

func TestGetRequiresViewer(t *testing.T) {
	svc, db, ctx := newService(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "mallory", "mallory@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")

	got, err := svc.Get(ctx, "alice", listID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Title)

	_, err = svc.Get(ctx, "mallory", listID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAccessDenied))
}

func TestUpdateRequiresEditor(t *testing.T) {
	svc, db, ctx := newService(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	storagetest.SeedUser(t, db, "carol", "carol@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "editor")
	storagetest.SeedAccess(t, db, "carol", listID, "viewer")

	updated, err := svc.Update(ctx, "bob", lists.List{ID: listID, Title: "errands", Description: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "errands", updated.Title)

	_, err = svc.Update(ctx, "carol", lists.List{ID: listID, Title: "mine now"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAccessDenied))
}

func TestDeleteRequiresOwnerAndCascades(t *testing.T) {
	svc, db, ctx := newService(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "editor")
	storagetest.SeedTask(t, db, listID, "buy milk", "")

	err := svc.Delete(ctx, "bob", listID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAccessDenied))

	require.NoError(t, svc.Delete(ctx, "alice", listID))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM list_access WHERE list_id = $1`, listID).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE list_id = $1`, listID).Scan(&count))
	assert.Zero(t, count)
}

func TestTransferOwnership(t *testing.T) {
	svc, db, ctx := newService(t)
	accessSvc := access.NewService(db, nil, nil)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	storagetest.SeedUser(t, db, "mallory", "mallory@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "viewer")

	t.Run("non-owner cannot transfer", func(t *testing.T) {
		_, err := svc.TransferOwnership(ctx, listID, "bob", "mallory")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))
	})

	t.Run("target without prior access is denied", func(t *testing.T) {
		_, err := svc.TransferOwnership(ctx, listID, "alice", "mallory")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))

		// Nothing changed.
		rec, err := accessSvc.Get(ctx, "alice", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleOwner, rec.Role)
	})

	t.Run("transfer to self is invalid", func(t *testing.T) {
		_, err := svc.TransferOwnership(ctx, listID, "alice", "alice")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})

	t.Run("swaps owner and demotes the former owner", func(t *testing.T) {
		transferred, err := svc.TransferOwnership(ctx, listID, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", transferred.OwnerID)

		newOwner, err := accessSvc.Get(ctx, "bob", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleOwner, newOwner.Role)

		former, err := accessSvc.Get(ctx, "alice", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleEditor, former.Role)

		// Exactly one owner remains.
		var owners int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM list_access WHERE list_id = $1 AND role = 'owner'`, listID).Scan(&owners))
		assert.Equal(t, 1, owners)
	})
}
