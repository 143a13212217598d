package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/taskhive/pkg/observability"
)

// Recorder is the interface resource services record events through.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// DBRecorder persists events to the audit_events table.
type DBRecorder struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewDBRecorder creates a database-backed recorder. The logger receives
// write failures; events are never allowed to fail the recorded operation.
func NewDBRecorder(db *sql.DB, logger *observability.Logger) *DBRecorder {
	return &DBRecorder{db: db, logger: logger}
}

// Record writes the event. Failures are logged and swallowed.
func (r *DBRecorder) Record(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	query := `
		INSERT INTO audit_events (actor_id, action, list_id, subject_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ActorID, event.Action, event.ListID, event.SubjectID, event.Detail, event.OccurredAt)
	if err != nil && r.logger != nil {
		r.logger.WithError(err).WithField("action", string(event.Action)).Warn("failed to record audit event")
	}
}

// List returns the most recent events for a list, newest first.
func (r *DBRecorder) List(ctx context.Context, listID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, actor_id, action, list_id, subject_id, detail, occurred_at
		FROM audit_events
		WHERE list_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, listID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ListID, &e.SubjectID, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// NopRecorder discards all events. Used in tests and when auditing is
// disabled by configuration.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Event) {}
