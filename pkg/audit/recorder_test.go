package audit_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/storage/storagetest"
)

func TestDBRecorderRoundTrip(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	listID := storagetest.SeedList(t, db, "alice", "audited")

	recorder := audit.NewDBRecorder(db, observability.NewLogger(observability.ErrorLevel, io.Discard))
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	recorder.Record(ctx, audit.Event{
		ActorID:    "alice",
		Action:     audit.ActionAccessGranted,
		ListID:     listID,
		SubjectID:  "bob",
		OccurredAt: base,
	})
	recorder.Record(ctx, audit.Event{
		ActorID:    "alice",
		Action:     audit.ActionAccessRevoked,
		ListID:     listID,
		SubjectID:  "bob",
		OccurredAt: base.Add(time.Minute),
	})

	events, err := recorder.List(ctx, listID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, audit.ActionAccessRevoked, events[0].Action)
	assert.Equal(t, audit.ActionAccessGranted, events[1].Action)
	assert.Equal(t, "bob", events[0].SubjectID)
}

func TestDBRecorderSwallowsWriteFailures(t *testing.T) {
	db := storagetest.OpenDB(t)
	require.NoError(t, db.Close())

	recorder := audit.NewDBRecorder(db, observability.NewLogger(observability.ErrorLevel, io.Discard))
	// Must not panic or propagate the error.
	recorder.Record(context.Background(), audit.Event{
		ActorID: "alice",
		Action:  audit.ActionListDeleted,
		ListID:  1,
	})
}

func TestDBRecorderListLimit(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.SeedUser(t, db, "alice", "alice@example.com")
	listID := storagetest.SeedList(t, db, "alice", "audited")

	recorder := audit.NewDBRecorder(db, nil)
	for i := 0; i < 5; i++ {
		recorder.Record(context.Background(), audit.Event{
			ActorID: "alice",
			Action:  audit.ActionInviteCreated,
			ListID:  listID,
		})
	}

	events, err := recorder.List(context.Background(), listID, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
