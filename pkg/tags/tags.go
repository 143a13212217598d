// Package tags manages list-scoped labels and their attachment to tasks.
// A tag name is unique within its list; editors manage tags, any accessor
// reads them. Tags disappear with their list, attachments with their task.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/storage"
)

// Tag is a label owned by a list.
type Tag struct {
	ID     int64  `json:"id"`
	ListID int64  `json:"list_id"`
	Tag    string `json:"tag"`
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists tags and task attachments.
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

// Insert adds a tag. A duplicate name within the list is ErrDuplicate.
func (s *Store) Insert(ctx context.Context, tag Tag) (*Tag, error) {
	query := `INSERT INTO tags (list_id, tag) VALUES ($1, $2) RETURNING id`
	err := s.db.QueryRowContext(ctx, query, tag.ListID, tag.Tag).Scan(&tag.ID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("tag %q already exists on list %d: %w", tag.Tag, tag.ListID, errs.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return &tag, nil
}

// Get returns the named tag on a list, or ErrNotFound.
func (s *Store) Get(ctx context.Context, listID int64, name string) (*Tag, error) {
	query := `SELECT id, list_id, tag FROM tags WHERE list_id = $1 AND tag = $2`
	var t Tag
	err := s.db.QueryRowContext(ctx, query, listID, name).Scan(&t.ID, &t.ListID, &t.Tag)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag %q on list %d: %w", name, listID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// ListByList returns the list's tags, sorted by name.
func (s *Store) ListByList(ctx context.Context, listID int64) ([]Tag, error) {
	query := `SELECT id, list_id, tag FROM tags WHERE list_id = $1 ORDER BY tag`
	rows, err := s.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.ListID, &t.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Delete removes the tag and, by cascade, its task attachments.
func (s *Store) Delete(ctx context.Context, tagID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, tagID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tag %d: %w", tagID, errs.ErrNotFound)
	}
	return nil
}

// ReplaceTaskTags swaps the task's attachment set for the given tag ids.
func (s *Store) ReplaceTaskTags(ctx context.Context, taskID int64, tagIDs []int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to clear task tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, taskID, tagID)
		if err != nil {
			return fmt.Errorf("failed to attach tag %d: %w", tagID, err)
		}
	}
	return nil
}

// Service implements tag operations behind capability checks.
type Service struct {
	db    *sql.DB
	store *Store
	gate  access.Checker
}

// NewService creates a tag service.
func NewService(db *sql.DB, gate access.Checker) *Service {
	return &Service{db: db, store: NewStore(db), gate: gate}
}

// ListForList returns the list's tags for any accessor.
func (s *Service) ListForList(ctx context.Context, userID string, listID int64) ([]Tag, error) {
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelViewer, access.FromList); err != nil {
		return nil, err
	}
	return s.store.ListByList(ctx, listID)
}

// Create adds a tag to the list. Requires editor.
func (s *Service) Create(ctx context.Context, userID string, listID int64, name string) (*Tag, error) {
	name = normalize(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is required: %w", errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelEditor, access.FromList); err != nil {
		return nil, err
	}
	return s.store.Insert(ctx, Tag{ListID: listID, Tag: name})
}

// Delete removes a tag from the list. Requires editor. The tag must belong
// to the list the caller named.
func (s *Service) Delete(ctx context.Context, userID string, listID int64, name string) error {
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelEditor, access.FromList); err != nil {
		return err
	}
	tag, err := s.store.Get(ctx, listID, normalize(name))
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, tag.ID)
}

// SetTaskTags replaces a task's tag set, creating list tags that do not
// exist yet. Requires editor, and the task must belong to the list the
// caller named. The whole swap is one transaction.
func (s *Service) SetTaskTags(ctx context.Context, userID string, taskID, expectedListID int64, names []string) ([]string, error) {
	if err := access.Require(ctx, s.gate, expectedListID, userID, access.LevelEditor, access.FromList); err != nil {
		return nil, err
	}

	var actualListID int64
	err := s.db.QueryRowContext(ctx, `SELECT list_id FROM tasks WHERE id = $1`, taskID).Scan(&actualListID)
	if err == sql.ErrNoRows || (err == nil && actualListID != expectedListID) {
		return nil, fmt.Errorf("task %d does not belong to list %d: %w", taskID, expectedListID, errs.ErrAccessDenied)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check task: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStore := s.store.WithTx(tx)

	seen := make(map[string]bool)
	var tagIDs []int64
	var applied []string
	for _, raw := range names {
		name := normalize(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, err := txStore.Get(ctx, expectedListID, name)
		if errors.Is(err, errs.ErrNotFound) {
			tag, err = txStore.Insert(ctx, Tag{ListID: expectedListID, Tag: name})
		}
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		tagIDs = append(tagIDs, tag.ID)
		applied = append(applied, name)
	}

	if err := txStore.ReplaceTaskTags(ctx, taskID, tagIDs); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tag update: %w", err)
	}
	return applied, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
