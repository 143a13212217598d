package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
)

func TestServiceGrant(t *testing.T) {
	db := storagetest.OpenDB(t)
	svc := access.NewService(db, nil, nil)
	ctx := context.Background()

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")

	t.Run("grants viewer", func(t *testing.T) {
		rec, err := svc.Grant(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.RoleViewer})
		require.NoError(t, err)
		assert.Equal(t, access.RoleViewer, rec.Role)

		got, err := svc.Get(ctx, "bob", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleViewer, got.Role)
	})

	t.Run("duplicate pair is ErrDuplicate", func(t *testing.T) {
		_, err := svc.Grant(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.RoleEditor})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrDuplicate))
	})

	t.Run("missing list is ErrNotFound", func(t *testing.T) {
		_, err := svc.Grant(ctx, access.Record{UserID: "bob", ListID: 9999, Role: access.RoleViewer})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("owner role is rejected", func(t *testing.T) {
		_, err := svc.Grant(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.RoleOwner})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.Grant(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.Role("admin")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})
}

func TestServiceChangeRole(t *testing.T) {
	db := storagetest.OpenDB(t)
	svc := access.NewService(db, nil, nil)
	ctx := context.Background()

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "viewer")

	t.Run("promotes viewer to editor", func(t *testing.T) {
		rec, err := svc.ChangeRole(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.RoleEditor})
		require.NoError(t, err)
		assert.Equal(t, access.RoleEditor, rec.Role)

		got, err := svc.Get(ctx, "bob", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleEditor, got.Role)
	})

	t.Run("missing record is ErrNotFound, never a create", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, access.Record{UserID: "ghost", ListID: listID, Role: access.RoleViewer})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrNotFound))

		_, err = svc.Get(ctx, "ghost", listID)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("cannot demote the owner", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, access.Record{UserID: "alice", ListID: listID, Role: access.RoleEditor})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})

	t.Run("cannot promote to owner", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, access.Record{UserID: "bob", ListID: listID, Role: access.RoleOwner})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})
}

func TestServiceRevoke(t *testing.T) {
	db := storagetest.OpenDB(t)
	svc := access.NewService(db, nil, nil)
	ctx := context.Background()

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "editor")

	t.Run("removes record", func(t *testing.T) {
		removed, err := svc.Revoke(ctx, "bob", listID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = svc.Get(ctx, "bob", listID)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("absent record reports false", func(t *testing.T) {
		removed, err := svc.Revoke(ctx, "bob", listID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("cannot revoke the owner", func(t *testing.T) {
		_, err := svc.Revoke(ctx, "alice", listID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))

		got, err := svc.Get(ctx, "alice", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleOwner, got.Role)
	})
}

func TestServiceResolveAndGate(t *testing.T) {
	db := storagetest.OpenDB(t)
	svc := access.NewService(db, nil, nil)
	gate := access.NewGate(svc)
	ctx := context.Background()

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "viewer")
	taskID := storagetest.SeedTask(t, db, listID, "buy milk", "bob")

	t.Run("from list", func(t *testing.T) {
		ok, err := gate.HasAccess(ctx, listID, "alice", access.LevelOwner, access.FromList)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = gate.HasAccess(ctx, listID, "bob", access.LevelEditor, access.FromList)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("from task resolves owning list", func(t *testing.T) {
		ok, err := gate.HasAccess(ctx, taskID, "bob", access.LevelViewer, access.FromTask)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = gate.HasAccess(ctx, taskID, "mallory", access.LevelViewer, access.FromTask)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing task resolves to empty set", func(t *testing.T) {
		records, err := svc.GetFromTask(ctx, 9999)
		require.NoError(t, err)
		assert.Empty(t, records)

		ok, err := gate.HasAccess(ctx, 9999, "alice", access.LevelViewer, access.FromTask)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown mode is ErrInvalid", func(t *testing.T) {
		_, err := svc.Resolve(ctx, listID, access.Mode("from_comment"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInvalid))
	})

	t.Run("revocation is visible immediately", func(t *testing.T) {
		ok, err := gate.HasAccess(ctx, listID, "bob", access.LevelViewer, access.FromList)
		require.NoError(t, err)
		require.True(t, ok)

		removed, err := svc.Revoke(ctx, "bob", listID)
		require.NoError(t, err)
		require.True(t, removed)

		ok, err = gate.HasAccess(ctx, listID, "bob", access.LevelViewer, access.FromList)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestServiceGetFromUser(t *testing.T) {
	db := storagetest.OpenDB(t)
	svc := access.NewService(db, nil, nil)
	ctx := context.Background()

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	listA := storagetest.SeedList(t, db, "alice", "groceries")
	listB := storagetest.SeedList(t, db, "alice", "chores")

	records, err := svc.GetFromUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, listA, records[0].ListID)
	assert.Equal(t, listB, records[1].ListID)
}
