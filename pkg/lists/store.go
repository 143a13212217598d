package lists

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists lists.
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

// Insert adds a list row and returns it with the generated id.
func (s *Store) Insert(ctx context.Context, list List) (*List, error) {
	query := `
		INSERT INTO lists (title, description, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		list.Title, list.Description, list.OwnerID, list.CreatedAt).Scan(&list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert list: %w", err)
	}
	return &list, nil
}

// Get returns the list, or ErrNotFound.
func (s *Store) Get(ctx context.Context, listID int64) (*List, error) {
	query := `
		SELECT id, title, description, owner_id, created_at
		FROM lists
		WHERE id = $1
	`
	var l List
	err := s.db.QueryRowContext(ctx, query, listID).
		Scan(&l.ID, &l.Title, &l.Description, &l.OwnerID, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("list %d: %w", listID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return &l, nil
}

// ListForUser returns every list the user holds an access record on,
// ordered by creation time.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]List, error) {
	query := `
		SELECT l.id, l.title, l.description, l.owner_id, l.created_at
		FROM lists l
		JOIN list_access a ON a.list_id = l.id
		WHERE a.user_id = $1
		ORDER BY l.created_at, l.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// Update changes title and description.
func (s *Store) Update(ctx context.Context, list List) error {
	query := `
		UPDATE lists
		SET title = $1, description = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, list.Title, list.Description, list.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("list %d: %w", list.ID, errs.ErrNotFound)
	}
	return nil
}

// UpdateOwner persists a new owner id on the list row.
func (s *Store) UpdateOwner(ctx context.Context, listID int64, ownerID string) error {
	query := `UPDATE lists SET owner_id = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, ownerID, listID)
	if err != nil {
		return fmt.Errorf("failed to update list owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("list %d: %w", listID, errs.ErrNotFound)
	}
	return nil
}

// Delete removes the list; tasks, tags, invites and access records cascade.
func (s *Store) Delete(ctx context.Context, listID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, listID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("list %d: %w", listID, errs.ErrNotFound)
	}
	return nil
}
