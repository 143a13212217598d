// Package storagetest provides an in-memory sqlite database with the
// application schema for service-level tests. The production schema targets
// PostgreSQL; queries are written to the subset both drivers accept, so the
// sqlite mirror below keeps the tests honest without a running server.
package storagetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE list_access (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		PRIMARY KEY (user_id, list_id)
	);

	CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		assigned_user_id TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 1,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		deadline TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	);

	CREATE TABLE comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		tag TEXT NOT NULL,
		UNIQUE (list_id, tag)
	);

	CREATE TABLE task_tags (
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	);

	CREATE TABLE invites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, list_id)
	);

	CREATE TABLE api_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		token_prefix TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		revoked_at TIMESTAMP
	);

	CREATE TABLE audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		list_id INTEGER NOT NULL,
		subject_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMP NOT NULL
	);
`

// OpenDB returns an in-memory database with the full schema applied. The
// pool is capped at one connection so every statement sees the same sqlite
// memory instance.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// SeedUser inserts a user row.
func SeedUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, created_at) VALUES ($1, $2, $3, $4)`,
		id, id, email, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}
}

// SeedList inserts a list row owned by ownerID together with the owner's
// access record, and returns the list id.
func SeedList(t *testing.T, db *sql.DB, ownerID, title string) int64 {
	t.Helper()
	var listID int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO lists (title, owner_id, created_at) VALUES ($1, $2, $3) RETURNING id`,
		title, ownerID, time.Now().UTC()).Scan(&listID)
	if err != nil {
		t.Fatalf("Failed to seed list %q: %v", title, err)
	}
	SeedAccess(t, db, ownerID, listID, "owner")
	return listID
}

// SeedAccess inserts an access record.
func SeedAccess(t *testing.T, db *sql.DB, userID string, listID int64, role string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO list_access (user_id, list_id, role) VALUES ($1, $2, $3)`,
		userID, listID, role)
	if err != nil {
		t.Fatalf("Failed to seed access for %s on %d: %v", userID, listID, err)
	}
}

// SeedTask inserts a task row and returns its id.
func SeedTask(t *testing.T, db *sql.DB, listID int64, title, assignedUserID string) int64 {
	t.Helper()
	var taskID int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO tasks (list_id, title, assigned_user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		listID, title, assignedUserID, time.Now().UTC()).Scan(&taskID)
	if err != nil {
		t.Fatalf("Failed to seed task %q: %v", title, err)
	}
	return taskID
}
