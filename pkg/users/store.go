package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskhive/pkg/errs"
	"github.com/platinummonkey/taskhive/pkg/storage"
)

// Store persists user directory entries.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a user. Duplicate emails are ErrDuplicate.
func (s *Store) Create(ctx context.Context, user User) (*User, error) {
	if user.ID == "" || user.Email == "" {
		return nil, fmt.Errorf("user id and email are required: %w", errs.ErrInvalid)
	}
	user.Email = strings.ToLower(user.Email)
	if user.Username == "" {
		user.Username = user.ID
	}
	user.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO users (id, username, email, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.CreatedAt)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %s or email %s already exists: %w", user.ID, user.Email, errs.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetByID returns the user, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, username, email, full_name, created_at
		FROM users
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id), "user "+id)
}

// GetByEmail returns the user with the given email, case-insensitively, or
// ErrNotFound.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, full_name, created_at
		FROM users
		WHERE email = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, strings.ToLower(email)), "email "+email)
}

// Update changes the mutable fields (username, email, full name).
func (s *Store) Update(ctx context.Context, user User) (*User, error) {
	user.Email = strings.ToLower(user.Email)
	query := `
		UPDATE users
		SET username = $1, email = $2, full_name = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, user.Username, user.Email, user.FullName, user.ID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email %s already exists: %w", user.Email, errs.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("user %s: %w", user.ID, errs.ErrNotFound)
	}
	return s.GetByID(ctx, user.ID)
}

func (s *Store) scanOne(row *sql.Row, what string) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", what, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
