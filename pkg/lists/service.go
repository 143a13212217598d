package lists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/errs"
)

// Service implements list operations behind capability checks: viewer to
// read, editor to update, owner to delete or transfer.
type Service struct {
	db          *sql.DB
	store       *Store
	accessStore *access.Store
	gate        access.Checker
	auditor     audit.Recorder
}

// NewService creates a list service.
func NewService(db *sql.DB, gate access.Checker, auditor audit.Recorder) *Service {
	if auditor == nil {
		auditor = audit.NopRecorder{}
	}
	return &Service{
		db:          db,
		store:       NewStore(db),
		accessStore: access.NewStore(db),
		gate:        gate,
		auditor:     auditor,
	}
}

// Create inserts the list and the creator's owner access record in one
// transaction.
func (s *Service) Create(ctx context.Context, ownerID, title, description string) (*List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("list title is required: %w", errs.ErrInvalid)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required: %w", errs.ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	created, err := s.store.WithTx(tx).Insert(ctx, List{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = s.accessStore.WithTx(tx).Insert(ctx, access.Record{
		UserID: ownerID,
		ListID: created.ID,
		Role:   access.RoleOwner,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// Get returns the list for any user holding a record on it.
func (s *Service) Get(ctx context.Context, userID string, listID int64) (*List, error) {
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelViewer, access.FromList); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, listID)
}

// ListForUser returns the lists the user can reach, at any role.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]List, error) {
	return s.store.ListForUser(ctx, userID)
}

// Update changes title and description. Requires editor.
func (s *Service) Update(ctx context.Context, userID string, list List) (*List, error) {
	title := strings.TrimSpace(list.Title)
	if title == "" {
		return nil, fmt.Errorf("list title is required: %w", errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, list.ID, userID, access.LevelEditor, access.FromList); err != nil {
		return nil, err
	}
	list.Title = title
	if err := s.store.Update(ctx, list); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, list.ID)
}

// Delete removes the list and everything beneath it. Requires owner.
func (s *Service) Delete(ctx context.Context, userID string, listID int64) error {
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, listID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Event{
		ActorID: userID,
		Action:  audit.ActionListDeleted,
		ListID:  listID,
	})
	return nil
}

// TransferOwnership atomically moves the owner role from currentUserID to
// newOwnerID. The new owner must already hold an access record on the list;
// ownership is never bootstrapped onto a stranger. The former owner is
// demoted to editor, never left without access. All row updates share one
// transaction, and the caller's ownership is re-verified inside it.
func (s *Service) TransferOwnership(ctx context.Context, listID int64, currentUserID, newOwnerID string) (*List, error) {
	if newOwnerID == "" {
		return nil, fmt.Errorf("new owner id is required: %w", errs.ErrInvalid)
	}
	if newOwnerID == currentUserID {
		return nil, fmt.Errorf("user %s already owns list %d: %w", currentUserID, listID, errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, listID, currentUserID, access.LevelOwner, access.FromList); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	transferred, err := s.transferInTx(ctx, tx, listID, currentUserID, newOwnerID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ownership transfer: %w", err)
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:   currentUserID,
		Action:    audit.ActionOwnershipTransfer,
		ListID:    listID,
		SubjectID: newOwnerID,
	})
	return transferred, nil
}

func (s *Service) transferInTx(ctx context.Context, tx *sql.Tx, listID int64, currentUserID, newOwnerID string) (*List, error) {
	accessTx := s.accessStore.WithTx(tx)

	current, err := accessTx.Get(ctx, currentUserID, listID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("user %s no longer owns list %d: %w", currentUserID, listID, errs.ErrAccessDenied)
		}
		return nil, err
	}
	if current.Role != access.RoleOwner {
		return nil, fmt.Errorf("user %s no longer owns list %d: %w", currentUserID, listID, errs.ErrAccessDenied)
	}

	target, err := accessTx.Get(ctx, newOwnerID, listID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("user %s must have accepted access to list %d before being granted ownership: %w",
				newOwnerID, listID, errs.ErrAccessDenied)
		}
		return nil, err
	}

	listTx := s.store.WithTx(tx)
	if err := listTx.UpdateOwner(ctx, listID, newOwnerID); err != nil {
		return nil, err
	}
	target.Role = access.RoleOwner
	if err := accessTx.UpdateRole(ctx, *target); err != nil {
		return nil, fmt.Errorf("ownership transfer left list %d inconsistent: %w", listID, errs.ErrInvariant)
	}
	current.Role = access.RoleEditor
	if err := accessTx.UpdateRole(ctx, *current); err != nil {
		return nil, fmt.Errorf("ownership transfer left list %d inconsistent: %w", listID, errs.ErrInvariant)
	}
	return listTx.Get(ctx, listID)
}
