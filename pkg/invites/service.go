package invites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/storage"
	"github.com/platinummonkey/taskhive/pkg/users"
)

// DefaultTTL is how long an invite stays open before the sweeper removes it.
const DefaultTTL = 14 * 24 * time.Hour

// Service implements the invitation workflow.
type Service struct {
	db          *sql.DB
	store       *Store
	accessStore *access.Store
	gate        access.Checker
	users       *users.Service
	auditor     audit.Recorder
	ttl         time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the invite lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates an invite service.
func NewService(db *sql.DB, gate access.Checker, userSvc *users.Service, auditor audit.Recorder, opts ...Option) *Service {
	if auditor == nil {
		auditor = audit.NopRecorder{}
	}
	s := &Service{
		db:          db,
		store:       NewStore(db),
		accessStore: access.NewStore(db),
		gate:        gate,
		users:       userSvc,
		auditor:     auditor,
		ttl:         DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create invites each email's user to the list. Only the owner may invite.
// The batch is all-or-nothing: one unknown email (ErrNotFound), existing
// accessor or pending duplicate (ErrDuplicate) rolls back every invite.
func (s *Service) Create(ctx context.Context, invitingUserID string, listID int64, emails []string, message string) ([]Invite, error) {
	if len(emails) == 0 {
		return nil, fmt.Errorf("at least one email is required: %w", errs.ErrInvalid)
	}
	if err := access.Require(ctx, s.gate, listID, invitingUserID, access.LevelOwner, access.FromList); err != nil {
		return nil, err
	}

	targets, err := s.users.ResolveEmails(ctx, emails)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	txInvites := s.store.WithTx(tx)
	txAccess := s.accessStore.WithTx(tx)

	created := make([]Invite, 0, len(targets))
	for _, target := range targets {
		if _, err := txAccess.Get(ctx, target.ID, listID); err == nil {
			tx.Rollback()
			return nil, fmt.Errorf("user %s already has access to list %d: %w", target.ID, listID, errs.ErrDuplicate)
		} else if !errors.Is(err, errs.ErrNotFound) {
			tx.Rollback()
			return nil, err
		}

		invite, err := txInvites.Insert(ctx, Invite{
			ListID:    listID,
			UserID:    target.ID,
			Message:   message,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		created = append(created, *invite)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invites: %w", err)
	}

	for _, invite := range created {
		s.auditor.Record(ctx, audit.Event{
			ActorID:   invitingUserID,
			Action:    audit.ActionInviteCreated,
			ListID:    listID,
			SubjectID: invite.UserID,
		})
	}
	return created, nil
}

// ListForList returns a list's pending invites. Only the owner may see
// them.
func (s *Service) ListForList(ctx context.Context, userID string, listID int64) ([]Invite, error) {
	if err := access.Require(ctx, s.gate, listID, userID, access.LevelOwner, access.FromList); err != nil {
		return nil, err
	}
	return s.store.ListByList(ctx, listID)
}

// ListForUser returns the open invites addressed to the user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Invite, error) {
	return s.store.ListByUser(ctx, userID)
}

// Respond resolves an invite. Only the invited user may respond; accepting
// grants viewer access and deletes the invite in one transaction, rejecting
// deletes it. An expired invite is treated as already gone.
func (s *Service) Respond(ctx context.Context, userID string, inviteID int64, accept bool) error {
	invite, err := s.store.Get(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.UserID != userID {
		return fmt.Errorf("invite %d is not addressed to user %s: %w", inviteID, userID, errs.ErrAccessDenied)
	}
	if invite.Expired(time.Now().UTC()) {
		// Lazy cleanup ahead of the sweeper.
		_ = s.store.Delete(ctx, inviteID)
		return fmt.Errorf("invite %d has expired: %w", inviteID, errs.ErrNotFound)
	}

	if !accept {
		if err := s.store.Delete(ctx, inviteID); err != nil {
			return err
		}
		s.auditor.Record(ctx, audit.Event{
			ActorID:   userID,
			Action:    audit.ActionInviteRejected,
			ListID:    invite.ListID,
			SubjectID: userID,
		})
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	err = s.accessStore.WithTx(tx).Insert(ctx, access.Record{
		UserID: userID,
		ListID: invite.ListID,
		Role:   access.RoleViewer,
	})
	if err != nil {
		tx.Rollback()
		// Access may have been granted directly while the invite was open.
		if storage.IsUniqueViolation(err) {
			return fmt.Errorf("user %s already has access to list %d: %w", userID, invite.ListID, errs.ErrDuplicate)
		}
		return err
	}
	if err := s.store.WithTx(tx).Delete(ctx, inviteID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invite acceptance: %w", err)
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:   userID,
		Action:    audit.ActionInviteAccepted,
		ListID:    invite.ListID,
		SubjectID: userID,
	})
	return nil
}

// Delete withdraws a pending invite administratively. Only the list owner
// may do so.
func (s *Service) Delete(ctx context.Context, userID string, inviteID int64) error {
	invite, err := s.store.Get(ctx, inviteID)
	if err != nil {
		return err
	}
	if err := access.Require(ctx, s.gate, invite.ListID, userID, access.LevelOwner, access.FromList); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, inviteID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Event{
		ActorID:   userID,
		Action:    audit.ActionInviteDeleted,
		ListID:    invite.ListID,
		SubjectID: invite.UserID,
		Detail:    "invite " + strconv.FormatInt(inviteID, 10),
	})
	return nil
}

// SweepExpired removes expired invites and reports how many were removed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, time.Now().UTC())
}
