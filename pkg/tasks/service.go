package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/errs"
)

// Service implements task operations behind capability checks.
type Service struct {
	store *Store
	gate  access.Checker
}

// NewService creates a task service.
func NewService(db *sql.DB, gate access.Checker) *Service {
	return &Service{store: NewStore(db), gate: gate}
}

// List returns tasks visible to the user, narrowed by the filter. When a
// list id is given the user must hold a record on that list; without one the
// query spans every list the user can reach.
func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]Task, error) {
	if filter.ListID != 0 {
		if err := access.Require(ctx, s.gate, filter.ListID, userID, access.LevelViewer, access.FromList); err != nil {
			return nil, err
		}
	}
	return s.store.List(ctx, userID, filter)
}

// Get returns a single task with its tags. Requires a record on the owning
// list.
func (s *Service) Get(ctx context.Context, userID string, taskID int64) (*Task, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(ctx, s.gate, task.ListID, userID, access.LevelViewer, access.FromList); err != nil {
		return nil, err
	}
	task.Tags, err = s.store.TagNames(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Create adds a task to the list. Requires editor. A task starts assigned
// to its creator unless another assignee is named.
func (s *Service) Create(ctx context.Context, userID string, task Task) (*Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, fmt.Errorf("task title is required: %w", errs.ErrInvalid)
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %d: %w", task.Priority, errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, task.ListID, userID, access.LevelEditor, access.FromList); err != nil {
		return nil, err
	}
	if task.AssignedUserID == "" {
		task.AssignedUserID = userID
	}
	task.Completed = false
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = nil
	return s.store.Insert(ctx, task)
}

// Update changes title, description, deadline and priority. Requires editor
// on the list the caller claims the task belongs to.
func (s *Service) Update(ctx context.Context, userID string, expectedListID int64, task Task) (*Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, fmt.Errorf("task title is required: %w", errs.ErrInvalid)
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %d: %w", task.Priority, errs.ErrInvalid)
	}
	if err := s.CheckAccessData(ctx, task.ID, expectedListID, userID, access.LevelEditor); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, task.ID)
}

// SetCompletion marks the task complete or pending. Allowed for the
// assigned user and for editors.
func (s *Service) SetCompletion(ctx context.Context, userID string, taskID, expectedListID int64, completed bool) (*Task, error) {
	if err := s.CheckAccessData(ctx, taskID, expectedListID, userID, access.LevelAssignedUser); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCompletion(ctx, taskID, completed); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, taskID)
}

// Reassign hands the task to another user. Requires editor.
func (s *Service) Reassign(ctx context.Context, userID string, taskID, expectedListID int64, otherUserID string) (*Task, error) {
	if otherUserID == "" {
		return nil, fmt.Errorf("assignee is required: %w", errs.ErrInvalid)
	}
	if err := s.CheckAccessData(ctx, taskID, expectedListID, userID, access.LevelEditor); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAssignedUser(ctx, taskID, otherUserID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, taskID)
}

// ChangePriority adjusts the priority. Requires editor.
func (s *Service) ChangePriority(ctx context.Context, userID string, taskID, expectedListID int64, priority Priority) (*Task, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("unknown priority %d: %w", priority, errs.ErrInvalid)
	}
	if err := s.CheckAccessData(ctx, taskID, expectedListID, userID, access.LevelEditor); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePriority(ctx, taskID, priority); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, taskID)
}

// Delete removes the task. Allowed for the assigned user and for editors.
func (s *Service) Delete(ctx context.Context, userID string, taskID, expectedListID int64) error {
	if err := s.CheckAccessData(ctx, taskID, expectedListID, userID, access.LevelAssignedUser); err != nil {
		return err
	}
	return s.store.Delete(ctx, taskID)
}

// CheckAccessData verifies that the task exists and belongs to the list the
// caller named, then evaluates the required level. A task under a different
// list is access-denied, not not-found: the caller may not probe permissions
// through a mismatched parent id.
//
// LevelAssignedUser passes when the caller is the task's assignee or holds
// editor on the list; either way the caller must still hold a record on the
// list.
func (s *Service) CheckAccessData(ctx context.Context, taskID, expectedListID int64, userID string, level access.Level) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil || task.ListID != expectedListID {
		return fmt.Errorf("task %d does not belong to list %d: %w", taskID, expectedListID, errs.ErrAccessDenied)
	}

	if level == access.LevelAssignedUser {
		isAssigned := task.AssignedUserID == userID
		if !isAssigned {
			isEditor, err := s.gate.HasAccess(ctx, expectedListID, userID, access.LevelEditor, access.FromList)
			if err != nil {
				return err
			}
			if !isEditor {
				return fmt.Errorf("user %s is neither assigned to task %d nor an editor: %w", userID, taskID, errs.ErrAccessDenied)
			}
		}
	}

	return access.Require(ctx, s.gate, expectedListID, userID, level, access.FromList)
}
