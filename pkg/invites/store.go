package invites

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/storage"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists invites.
type Store struct {
	db querier
}

// NewStore creates a store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{db: tx}
}

const inviteColumns = `id, list_id, user_id, message, created_at, expires_at`

// Insert adds an invite. A pending invite for the same pair is ErrDuplicate.
func (s *Store) Insert(ctx context.Context, invite Invite) (*Invite, error) {
	query := `
		INSERT INTO invites (list_id, user_id, message, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		invite.ListID, invite.UserID, invite.Message, invite.CreatedAt, invite.ExpiresAt).Scan(&invite.ID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %s is already invited to list %d: %w", invite.UserID, invite.ListID, errs.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert invite: %w", err)
	}
	return &invite, nil
}

// Get returns the invite, or ErrNotFound.
func (s *Store) Get(ctx context.Context, inviteID int64) (*Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	var i Invite
	err := s.db.QueryRowContext(ctx, query, inviteID).
		Scan(&i.ID, &i.ListID, &i.UserID, &i.Message, &i.CreatedAt, &i.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invite %d: %w", inviteID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return &i, nil
}

// ListByList returns the list's pending invites.
func (s *Store) ListByList(ctx context.Context, listID int64) ([]Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE list_id = $1 ORDER BY id`
	return s.query(ctx, query, listID)
}

// ListByUser returns the invites addressed to a user.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE user_id = $1 ORDER BY id`
	return s.query(ctx, query, userID)
}

// Delete removes the invite.
func (s *Store) Delete(ctx context.Context, inviteID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invites WHERE id = $1`, inviteID)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invite %d: %w", inviteID, errs.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes invites whose expiry has passed and reports how
// many were removed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invites WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func (s *Store) query(ctx context.Context, query string, arg interface{}) ([]Invite, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []Invite
	for rows.Next() {
		var i Invite
		if err := rows.Scan(&i.ID, &i.ListID, &i.UserID, &i.Message, &i.CreatedAt, &i.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, i)
	}
	return invites, rows.Err()
}
