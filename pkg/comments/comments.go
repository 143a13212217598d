// Package comments manages comments under tasks. Editors on the owning list
// add comments; any accessor reads them; a comment's author or an editor may
// change or remove it.
package comments

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
)

// Comment is a remark attached to a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists comments.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert adds a comment and returns it with the generated id.
func (s *Store) Insert(ctx context.Context, comment Comment) (*Comment, error) {
	query := `
		INSERT INTO comments (task_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		comment.TaskID, comment.AuthorID, comment.Content, comment.CreatedAt).Scan(&comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return &comment, nil
}

// Get returns the comment, or ErrNotFound.
func (s *Store) Get(ctx context.Context, commentID int64) (*Comment, error) {
	query := `
		SELECT id, task_id, author_id, content, created_at
		FROM comments
		WHERE id = $1
	`
	var c Comment
	err := s.db.QueryRowContext(ctx, query, commentID).
		Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %d: %w", commentID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByTask returns the task's comments, oldest first.
func (s *Store) ListByTask(ctx context.Context, taskID int64) ([]Comment, error) {
	query := `
		SELECT id, task_id, author_id, content, created_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateContent replaces the comment text.
func (s *Store) UpdateContent(ctx context.Context, commentID int64, content string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET content = $1 WHERE id = $2`, content, commentID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("comment %d: %w", commentID, errs.ErrNotFound)
	}
	return nil
}

// Delete removes the comment.
func (s *Store) Delete(ctx context.Context, commentID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("comment %d: %w", commentID, errs.ErrNotFound)
	}
	return nil
}

// Service implements comment operations behind capability checks.
type Service struct {
	store *Store
	gate  access.Checker
}

// NewService creates a comment service.
func NewService(db *sql.DB, gate access.Checker) *Service {
	return &Service{store: NewStore(db), gate: gate}
}

// ListForTask returns the task's comments for any accessor of the owning
// list.
func (s *Service) ListForTask(ctx context.Context, userID string, taskID int64) ([]Comment, error) {
	if err := access.Require(ctx, s.gate, taskID, userID, access.LevelViewer, access.FromTask); err != nil {
		return nil, err
	}
	return s.store.ListByTask(ctx, taskID)
}

// Get returns one comment for any accessor of the owning list.
func (s *Service) Get(ctx context.Context, userID string, commentID int64) (*Comment, error) {
	comment, err := s.store.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(ctx, s.gate, comment.TaskID, userID, access.LevelViewer, access.FromTask); err != nil {
		return nil, err
	}
	return comment, nil
}

// Add attaches a comment to a task. Requires editor on the owning list.
func (s *Service) Add(ctx context.Context, userID string, taskID int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, taskID, userID, access.LevelEditor, access.FromTask); err != nil {
		return nil, err
	}
	return s.store.Insert(ctx, Comment{
		TaskID:    taskID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// Update replaces the comment text. Allowed for the author and for editors.
func (s *Service) Update(ctx context.Context, userID string, commentID, expectedTaskID int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", errs.ErrInvalid)
	}
	if err := s.checkAccessData(ctx, commentID, expectedTaskID, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateContent(ctx, commentID, content); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, commentID)
}

// Delete removes the comment. Allowed for the author and for editors.
func (s *Service) Delete(ctx context.Context, userID string, commentID, expectedTaskID int64) error {
	if err := s.checkAccessData(ctx, commentID, expectedTaskID, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, commentID)
}

// checkAccessData verifies the comment exists under the task the caller
// named, then applies the author-or-editor rule. The author must still hold
// a record on the owning list.
func (s *Service) checkAccessData(ctx context.Context, commentID, expectedTaskID int64, userID string) error {
	comment, err := s.store.Get(ctx, commentID)
	if err != nil || comment.TaskID != expectedTaskID {
		return fmt.Errorf("comment %d does not belong to task %d: %w", commentID, expectedTaskID, errs.ErrAccessDenied)
	}

	if comment.AuthorID != userID {
		isEditor, err := s.gate.HasAccess(ctx, expectedTaskID, userID, access.LevelEditor, access.FromTask)
		if err != nil {
			return err
		}
		if !isEditor {
			return fmt.Errorf("user %s is neither the author of comment %d nor an editor: %w", userID, commentID, errs.ErrAccessDenied)
		}
	}

	return access.Require(ctx, s.gate, expectedTaskID, userID, access.LevelViewer, access.FromTask)
}
