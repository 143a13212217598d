package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleViewer.Valid())
	assert.True(t, RoleEditor.Valid())
	assert.True(t, RoleOwner.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		held     Role
		required Level
		want     bool
	}{
		{"viewer satisfies viewer", RoleViewer, LevelViewer, true},
		{"editor satisfies viewer", RoleEditor, LevelViewer, true},
		{"owner satisfies viewer", RoleOwner, LevelViewer, true},

		// At the gate, assigned-user only tests record presence.
		{"viewer satisfies assigned", RoleViewer, LevelAssignedUser, true},
		{"editor satisfies assigned", RoleEditor, LevelAssignedUser, true},
		{"owner satisfies assigned", RoleOwner, LevelAssignedUser, true},

		{"viewer fails editor", RoleViewer, LevelEditor, false},
		{"editor satisfies editor", RoleEditor, LevelEditor, true},
		{"owner satisfies editor", RoleOwner, LevelEditor, true},

		{"viewer fails owner", RoleViewer, LevelOwner, false},
		{"editor fails owner", RoleEditor, LevelOwner, false},
		{"owner satisfies owner", RoleOwner, LevelOwner, true},

		{"unknown level never satisfied", RoleOwner, Level("root"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(tt.held, tt.required))
		})
	}
}
