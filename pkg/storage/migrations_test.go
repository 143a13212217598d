package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndComplete(t *testing.T) {
	migrations := Migrations()
	require.NotEmpty(t, migrations)

	seen := map[int]bool{}
	last := 0
	for _, m := range migrations {
		assert.Greater(t, m.Version, last, "versions must be strictly increasing")
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, strings.TrimSpace(m.SQL))
		seen[m.Version] = true
		last = m.Version
	}
}

func TestMigrationsCoverSchema(t *testing.T) {
	var all strings.Builder
	for _, m := range Migrations() {
		all.WriteString(m.SQL)
	}

	for _, table := range []string{
		"users", "lists", "list_access", "tasks", "comments",
		"tags", "task_tags", "invites", "api_tokens", "audit_events",
	} {
		assert.Contains(t, all.String(), table)
	}
}
