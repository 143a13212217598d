package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/contextkeys"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/storage"
)

// Service exposes query, grant and revoke operations over access records to
// the resource services and the API layer. It also implements Resolver for
// the capability gate.
//
// Grant, ChangeRole and Revoke re-read the current state inside the same
// transaction as their mutation, so concurrent calls cannot interleave into a
// list with zero or two owners.
type Service struct {
	db      *sql.DB
	store   *Store
	auditor audit.Recorder
	logger  *observability.Logger
}

// NewService creates an access service over the given database handle.
func NewService(db *sql.DB, auditor audit.Recorder, logger *observability.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopRecorder{}
	}
	return &Service{
		db:      db,
		store:   NewStore(db),
		auditor: auditor,
		logger:  logger,
	}
}

// Store returns the underlying record store. List creation, ownership
// transfer and invite acceptance bind it to their own transactions.
func (s *Service) Store() *Store {
	return s.store
}

// GetFromList returns all access records for a list.
func (s *Service) GetFromList(ctx context.Context, listID int64) ([]Record, error) {
	return s.store.ListByList(ctx, listID)
}

// GetFromTask returns the access records of the task's owning list. A
// missing task yields an empty set.
func (s *Service) GetFromTask(ctx context.Context, taskID int64) ([]Record, error) {
	return s.store.ListByTask(ctx, taskID)
}

// GetFromUser returns every list the user can reach, at any role.
func (s *Service) GetFromUser(ctx context.Context, userID string) ([]Record, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns the record for a (user, list) pair, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string, listID int64) (*Record, error) {
	return s.store.Get(ctx, userID, listID)
}

// Resolve implements Resolver for the capability gate.
func (s *Service) Resolve(ctx context.Context, resourceID int64, mode Mode) ([]Record, error) {
	switch mode {
	case FromList:
		return s.store.ListByList(ctx, resourceID)
	case FromTask:
		return s.store.ListByTask(ctx, resourceID)
	}
	return nil, fmt.Errorf("unknown access mode %q: %w", mode, errs.ErrInvalid)
}

// Grant inserts a new access record. It fails with ErrNotFound when the list
// does not exist, ErrDuplicate when the pair already holds a record, and
// ErrInvalid for the owner role: ownership is established by list creation
// and moved by TransferOwnership, never granted directly.
func (s *Service) Grant(ctx context.Context, rec Record) (*Record, error) {
	if !rec.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", rec.Role, errs.ErrInvalid)
	}
	if rec.Role == RoleOwner {
		return nil, fmt.Errorf("ownership cannot be granted directly: %w", errs.ErrInvalid)
	}
	if rec.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", errs.ErrInvalid)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM lists WHERE id = $1`, rec.ListID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("list %d: %w", rec.ListID, errs.ErrNotFound)
			}
			return fmt.Errorf("failed to check list: %w", err)
		}

		if _, err := s.store.WithTx(tx).Get(ctx, rec.UserID, rec.ListID); err == nil {
			return fmt.Errorf("user %s already has access to list %d: %w", rec.UserID, rec.ListID, errs.ErrDuplicate)
		} else if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		if err := s.store.WithTx(tx).Insert(ctx, rec); err != nil {
			// Backstop for a concurrent grant racing past the pre-check.
			if storage.IsUniqueViolation(err) {
				return fmt.Errorf("user %s already has access to list %d: %w", rec.UserID, rec.ListID, errs.ErrDuplicate)
			}
			if storage.IsForeignKeyViolation(err) {
				return fmt.Errorf("user %s: %w", rec.UserID, errs.ErrNotFound)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": rec.UserID,
			"list_id": rec.ListID,
			"role":    string(rec.Role),
		}).Debug("access granted")
	}
	s.auditor.Record(ctx, audit.Event{
		ActorID:   s.actor(ctx),
		Action:    audit.ActionAccessGranted,
		ListID:    rec.ListID,
		SubjectID: rec.UserID,
		Detail:    string(rec.Role),
	})
	return &rec, nil
}

// ChangeRole updates the role of an existing record. A missing record is
// ErrNotFound, never an implicit create. The owner record cannot be changed
// here and no record can be raised to owner; both go through
// TransferOwnership.
func (s *Service) ChangeRole(ctx context.Context, rec Record) (*Record, error) {
	if !rec.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", rec.Role, errs.ErrInvalid)
	}
	if rec.Role == RoleOwner {
		return nil, fmt.Errorf("ownership cannot be assigned directly: %w", errs.ErrInvalid)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.store.WithTx(tx).Get(ctx, rec.UserID, rec.ListID)
		if err != nil {
			return err
		}
		if current.Role == RoleOwner {
			return fmt.Errorf("cannot demote the list owner: %w", errs.ErrInvalid)
		}
		return s.store.WithTx(tx).UpdateRole(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:   s.actor(ctx),
		Action:    audit.ActionRoleChanged,
		ListID:    rec.ListID,
		SubjectID: rec.UserID,
		Detail:    string(rec.Role),
	})
	return &rec, nil
}

// Revoke deletes the record if present and reports whether one was removed.
// The owner record cannot be revoked; a list never loses its owner while
// other accessors remain.
func (s *Service) Revoke(ctx context.Context, userID string, listID int64) (bool, error) {
	var removed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.store.WithTx(tx).Get(ctx, userID, listID)
		if errors.Is(err, errs.ErrNotFound) {
			removed = false
			return nil
		}
		if err != nil {
			return err
		}
		if current.Role == RoleOwner {
			return fmt.Errorf("cannot revoke the list owner: %w", errs.ErrInvalid)
		}
		removed, err = s.store.WithTx(tx).Delete(ctx, userID, listID)
		return err
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.auditor.Record(ctx, audit.Event{
			ActorID:   s.actor(ctx),
			Action:    audit.ActionAccessRevoked,
			ListID:    listID,
			SubjectID: userID,
		})
	}
	return removed, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) actor(ctx context.Context) string {
	if userID, ok := contextkeys.GetUserID(ctx); ok {
		return userID
	}
	return "system"
}
