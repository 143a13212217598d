package access

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists access records.
type Store struct {
	db querier
}

// NewStore creates a store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction. Multi-row updates
// (list creation, ownership transfer, invite acceptance) go through this so
// the access rows commit or roll back with the rest of the operation.
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{db: tx}
}

// ListByList returns all access records for a list.
func (s *Store) ListByList(ctx context.Context, listID int64) ([]Record, error) {
	query := `
		SELECT user_id, list_id, role
		FROM list_access
		WHERE list_id = $1
		ORDER BY user_id
	`
	return s.queryRecords(ctx, query, listID)
}

// ListByTask returns the access records of the task's owning list. A missing
// task yields an empty set, not an error.
func (s *Store) ListByTask(ctx context.Context, taskID int64) ([]Record, error) {
	query := `
		SELECT a.user_id, a.list_id, a.role
		FROM list_access a
		JOIN tasks t ON t.list_id = a.list_id
		WHERE t.id = $1
		ORDER BY a.user_id
	`
	return s.queryRecords(ctx, query, taskID)
}

// ListByUser returns every list the user can reach, at any role.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	query := `
		SELECT user_id, list_id, role
		FROM list_access
		WHERE user_id = $1
		ORDER BY list_id
	`
	return s.queryRecords(ctx, query, userID)
}

// Get returns the record for a (user, list) pair, or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string, listID int64) (*Record, error) {
	query := `
		SELECT user_id, list_id, role
		FROM list_access
		WHERE user_id = $1 AND list_id = $2
	`
	var rec Record
	err := s.db.QueryRowContext(ctx, query, userID, listID).Scan(&rec.UserID, &rec.ListID, &rec.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("access record for user %s on list %d: %w", userID, listID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access record: %w", err)
	}
	return &rec, nil
}

// Insert adds a new record. The composite primary key rejects duplicates.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO list_access (user_id, list_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, rec.UserID, rec.ListID, rec.Role); err != nil {
		return fmt.Errorf("failed to insert access record: %w", err)
	}
	return nil
}

// UpdateRole changes the role of an existing record. Missing records are an
// error, never an implicit create.
func (s *Store) UpdateRole(ctx context.Context, rec Record) error {
	query := `
		UPDATE list_access
		SET role = $1
		WHERE user_id = $2 AND list_id = $3
	`
	result, err := s.db.ExecContext(ctx, query, rec.Role, rec.UserID, rec.ListID)
	if err != nil {
		return fmt.Errorf("failed to update access record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("access record for user %s on list %d: %w", rec.UserID, rec.ListID, errs.ErrNotFound)
	}
	return nil
}

// Delete removes the record if present and reports whether one was removed.
func (s *Store) Delete(ctx context.Context, userID string, listID int64) (bool, error) {
	query := `DELETE FROM list_access WHERE user_id = $1 AND list_id = $2`
	result, err := s.db.ExecContext(ctx, query, userID, listID)
	if err != nil {
		return false, fmt.Errorf("failed to delete access record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, arg interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query access records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.ListID, &rec.Role); err != nil {
			return nil, fmt.Errorf("failed to scan access record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
