package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is a single versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the full schema history, oldest first.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id VARCHAR(64) PRIMARY KEY,
					username VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL
				);
			`,
		},
		{
			Version:     2,
			Description: "Create lists table",
			SQL: `
				CREATE TABLE IF NOT EXISTS lists (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(255) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					owner_id VARCHAR(64) NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_lists_owner_id ON lists(owner_id);
			`,
		},
		{
			Version:     3,
			Description: "Create list_access table",
			SQL: `
				CREATE TABLE IF NOT EXISTS list_access (
					user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					list_id BIGINT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
					role VARCHAR(16) NOT NULL,
					PRIMARY KEY (user_id, list_id)
				);

				CREATE INDEX IF NOT EXISTS idx_list_access_list_id ON list_access(list_id);
			`,
		},
		{
			Version:     4,
			Description: "Create tasks table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tasks (
					id BIGSERIAL PRIMARY KEY,
					list_id BIGINT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					assigned_user_id VARCHAR(64) NOT NULL DEFAULT '',
					priority INTEGER NOT NULL DEFAULT 1,
					completed BOOLEAN NOT NULL DEFAULT FALSE,
					deadline TIMESTAMP,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_tasks_list_id ON tasks(list_id);
				CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user_id ON tasks(assigned_user_id);
			`,
		},
		{
			Version:     5,
			Description: "Create comments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS comments (
					id BIGSERIAL PRIMARY KEY,
					task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
					author_id VARCHAR(64) NOT NULL,
					content TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_comments_task_id ON comments(task_id);
			`,
		},
		{
			Version:     6,
			Description: "Create tags and task_tags tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS tags (
					id BIGSERIAL PRIMARY KEY,
					list_id BIGINT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
					tag VARCHAR(64) NOT NULL,
					UNIQUE (list_id, tag)
				);

				CREATE TABLE IF NOT EXISTS task_tags (
					task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
					tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
					PRIMARY KEY (task_id, tag_id)
				);
			`,
		},
		{
			Version:     7,
			Description: "Create invites table",
			SQL: `
				CREATE TABLE IF NOT EXISTS invites (
					id BIGSERIAL PRIMARY KEY,
					list_id BIGINT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
					user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					message TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					UNIQUE (user_id, list_id)
				);

				CREATE INDEX IF NOT EXISTS idx_invites_list_id ON invites(list_id);
				CREATE INDEX IF NOT EXISTS idx_invites_expires_at ON invites(expires_at);
			`,
		},
		{
			Version:     8,
			Description: "Create api_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_tokens (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					name VARCHAR(255) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL,
					expires_at TIMESTAMP,
					revoked_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_api_tokens_user_id ON api_tokens(user_id);
			`,
		},
		{
			Version:     9,
			Description: "Create audit_events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id BIGSERIAL PRIMARY KEY,
					actor_id VARCHAR(64) NOT NULL,
					action VARCHAR(64) NOT NULL,
					list_id BIGINT NOT NULL,
					subject_id VARCHAR(64) NOT NULL DEFAULT '',
					detail TEXT NOT NULL DEFAULT '',
					occurred_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_audit_events_list_id ON audit_events(list_id);
			`,
		},
	}
}

// Migrate applies all pending migrations in order. Each migration runs in
// its own transaction together with the version bookkeeping row.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, m := range Migrations() {
		var exists int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE version = $1`, m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)`,
			m.Version, m.Description, time.Now().UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
