package invites_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/invites"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
	"github.com/platinummonkey/taskhive/pkg/users"
)

// fixture: alice owns the list, bob edits; carol and dave hold nothing.
func newService(t *testing.T, opts ...invites.Option) (*invites.Service, *sql.DB, int64, context.Context) {
	t.Helper()
	db := storagetest.OpenDB(t)
	accessSvc := access.NewService(db, nil, nil)
	gate := access.NewGate(accessSvc)
	userSvc, err := users.NewService(users.NewStore(db))
	require.NoError(t, err)
	svc := invites.NewService(db, gate, userSvc, nil, opts...)

	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	storagetest.SeedUser(t, db, "bob", "bob@example.com")
	storagetest.SeedUser(t, db, "carol", "carol@example.com")
	storagetest.SeedUser(t, db, "dave", "dave@example.com")
	listID := storagetest.SeedList(t, db, "alice", "groceries")
	storagetest.SeedAccess(t, db, "bob", listID, "editor")

	return svc, db, listID, context.Background()
}

func TestCreate(t *testing.T) {
	svc, db, listID, ctx := newService(t)

	t.Run("owner invites a batch", func(t *testing.T) {
		created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com", "dave@example.com"}, "join us")
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "carol", created[0].UserID)
		assert.True(t, created[0].ExpiresAt.After(created[0].CreatedAt))
	})

	t.Run("duplicate pending invite is ErrDuplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrDuplicate))
	})

	t.Run("editor may not invite", func(t *testing.T) {
		_, err := svc.Create(ctx, "bob", listID, []string{"dave@example.com"}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))
	})

	t.Run("unknown email fails the whole batch", func(t *testing.T) {
		storagetest.SeedUser(t, db, "erin", "erin@example.com")
		_, err := svc.Create(ctx, "alice", listID, []string{"erin@example.com", "ghost@example.com"}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrNotFound))

		// erin's invite was rolled back with the batch.
		var count int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM invites WHERE user_id = 'erin'`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("existing accessor is ErrDuplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", listID, []string{"bob@example.com"}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrDuplicate))
	})
}

func TestRespondAccept(t *testing.T) {
	svc, db, listID, ctx := newService(t)
	accessSvc := access.NewService(db, nil, nil)

	created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
	require.NoError(t, err)
	inviteID := created[0].ID

	t.Run("only the invited user may respond", func(t *testing.T) {
		err := svc.Respond(ctx, "dave", inviteID, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))
	})

	t.Run("accept grants viewer and removes the invite", func(t *testing.T) {
		require.NoError(t, svc.Respond(ctx, "carol", inviteID, true))

		rec, err := accessSvc.Get(ctx, "carol", listID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleViewer, rec.Role)

		pending, err := svc.ListForUser(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("responding twice is ErrNotFound", func(t *testing.T) {
		err := svc.Respond(ctx, "carol", inviteID, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestRespondAcceptAfterDirectGrant(t *testing.T) {
	svc, db, listID, ctx := newService(t)

	created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
	require.NoError(t, err)

	// Owner grants access directly while the invite is still pending.
	storagetest.SeedAccess(t, db, "carol", listID, "viewer")

	err = svc.Respond(ctx, "carol", created[0].ID, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDuplicate))

	// The acceptance rolled back, so the invite is still open.
	pending, err := svc.ListForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRespondReject(t *testing.T) {
	svc, db, listID, ctx := newService(t)
	accessSvc := access.NewService(db, nil, nil)

	created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
	require.NoError(t, err)

	require.NoError(t, svc.Respond(ctx, "carol", created[0].ID, false))

	_, err = accessSvc.Get(ctx, "carol", listID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM invites`).Scan(&count))
	assert.Zero(t, count)
}

func TestAdministrativeDelete(t *testing.T) {
	svc, _, listID, ctx := newService(t)

	created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
	require.NoError(t, err)
	inviteID := created[0].ID

	t.Run("editor may not withdraw", func(t *testing.T) {
		err := svc.Delete(ctx, "bob", inviteID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))
	})

	t.Run("invited user may not withdraw through delete", func(t *testing.T) {
		err := svc.Delete(ctx, "carol", inviteID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrAccessDenied))
	})

	t.Run("owner withdraws", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "alice", inviteID))
		pending, err := svc.ListForList(ctx, "alice", listID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestExpiry(t *testing.T) {
	svc, db, listID, ctx := newService(t, invites.WithTTL(-time.Minute))

	created, err := svc.Create(ctx, "alice", listID, []string{"carol@example.com"}, "")
	require.NoError(t, err)

	t.Run("expired invite cannot be accepted", func(t *testing.T) {
		err := svc.Respond(ctx, "carol", created[0].ID, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("sweep purges expired rows", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", listID, []string{"dave@example.com"}, "")
		require.NoError(t, err)

		removed, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM invites`).Scan(&count))
		assert.Zero(t, count)
	})
}
