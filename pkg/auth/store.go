package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

// Token is a stored API token. The plaintext value exists only in the
// CreateResult returned at creation time.
type Token struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	TokenPrefix string     `json:"token_prefix"`
	Name        string     `json:"name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// CreateResult carries the one-time plaintext token alongside its record.
type CreateResult struct {
	Token     Token  `json:"token"`
	Plaintext string `json:"plaintext"`
}

// Store persists API tokens.
type Store struct {
	db  *sql.DB
	gen *TokenGenerator
}

// NewStore creates a token store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, gen: NewTokenGenerator()}
}

// Create mints a token for the user. expiresAt may be nil for a
// non-expiring token.
func (s *Store) Create(ctx context.Context, userID, name string, expiresAt *time.Time) (*CreateResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", errs.ErrInvalid)
	}

	plaintext, hash, prefix, err := s.gen.GenerateToken()
	if err != nil {
		return nil, err
	}

	token := Token{
		UserID:      userID,
		TokenPrefix: prefix,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	query := `
		INSERT INTO api_tokens (user_id, token_hash, token_prefix, name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		token.UserID, hash, token.TokenPrefix, token.Name, token.CreatedAt, token.ExpiresAt).Scan(&token.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &CreateResult{Token: token, Plaintext: plaintext}, nil
}

// Authenticate resolves a presented bearer token to a user id. Unknown,
// revoked and expired tokens all fail with ErrAccessDenied; callers get no
// hint which.
func (s *Store) Authenticate(ctx context.Context, plaintext string) (string, error) {
	if err := s.gen.ValidateTokenFormat(plaintext); err != nil {
		return "", fmt.Errorf("malformed token: %w", errs.ErrAccessDenied)
	}

	query := `
		SELECT user_id, expires_at, revoked_at
		FROM api_tokens
		WHERE token_hash = $1
	`
	var (
		userID    string
		expiresAt sql.NullTime
		revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, s.gen.HashToken(plaintext)).
		Scan(&userID, &expiresAt, &revokedAt)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("unknown token: %w", errs.ErrAccessDenied)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}

	if revokedAt.Valid {
		return "", fmt.Errorf("token revoked: %w", errs.ErrAccessDenied)
	}
	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		return "", fmt.Errorf("token expired: %w", errs.ErrAccessDenied)
	}
	return userID, nil
}

// ListForUser returns the user's tokens, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]Token, error) {
	query := `
		SELECT id, user_id, token_prefix, name, created_at, expires_at, revoked_at
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var (
			t         Token
			expiresAt sql.NullTime
			revokedAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenPrefix, &t.Name, &t.CreatedAt, &expiresAt, &revokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		if expiresAt.Valid {
			t.ExpiresAt = &expiresAt.Time
		}
		if revokedAt.Valid {
			t.RevokedAt = &revokedAt.Time
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Revoke marks the user's token unusable. Revoking an already revoked or
// unknown token is ErrNotFound.
func (s *Store) Revoke(ctx context.Context, userID string, tokenID int64) error {
	query := `
		UPDATE api_tokens
		SET revoked_at = $1
		WHERE id = $2 AND user_id = $3 AND revoked_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("token %d: %w", tokenID, errs.ErrNotFound)
	}
	return nil
}
