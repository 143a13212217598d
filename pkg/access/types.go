package access

// Role is the capability level a user holds on a list.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleOwner:
		return true
	}
	return false
}

// Level is the access level a gate check requires.
//
// LevelAssignedUser means "the acting user is the one assigned to / author of
// the specific child resource, or holds editor". The gate alone can only
// evaluate the role half; see the package documentation.
type Level string

const (
	LevelViewer       Level = "viewer"
	LevelAssignedUser Level = "assigned"
	LevelEditor       Level = "editor"
	LevelOwner        Level = "owner"
)

// Mode selects how the resource id passed to a gate check is resolved.
type Mode string

const (
	// FromList treats the resource id as a list id.
	FromList Mode = "from_list"
	// FromTask treats the resource id as a task id and resolves access
	// through the task's owning list.
	FromTask Mode = "from_task"
)

// Record is a durable grant of a role to a user on a list. At most one
// record exists per (UserID, ListID) pair.
type Record struct {
	UserID string `json:"user_id"`
	ListID int64  `json:"list_id"`
	Role   Role   `json:"role"`
}

// levelSatisfied maps each required level to a predicate over the role the
// user actually holds. A lookup table instead of switch chains so the level
// semantics are testable in isolation from access-set retrieval.
var levelSatisfied = map[Level]func(Role) bool{
	LevelViewer:       func(Role) bool { return true },
	LevelAssignedUser: func(Role) bool { return true },
	LevelEditor:       func(r Role) bool { return r == RoleEditor || r == RoleOwner },
	LevelOwner:        func(r Role) bool { return r == RoleOwner },
}

// Satisfies reports whether a held role meets the required level.
func Satisfies(held Role, required Level) bool {
	pred, ok := levelSatisfied[required]
	if !ok {
		return false
	}
	return pred(held)
}
