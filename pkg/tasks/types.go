// Package tasks manages tasks within a list: CRUD, assignment, priority,
// completion state and filtered queries. Editors manage tasks; completing or
// deleting a task additionally allows the assigned user.
package tasks

import "time"

// Priority orders tasks from low to critical.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityStandard
	PriorityHigh
	PriorityCritical
)

// Valid reports whether p is a defined priority.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// Task is a unit of work within a list.
type Task struct {
	ID             int64      `json:"id"`
	ListID         int64      `json:"list_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	AssignedUserID string     `json:"assigned_user_id,omitempty"`
	Priority       Priority   `json:"priority"`
	Completed      bool       `json:"completed"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

// SortOption orders filtered results.
type SortOption string

const (
	SortNone         SortOption = ""
	SortTitleAsc     SortOption = "title_asc"
	SortTitleDesc    SortOption = "title_desc"
	SortDeadlineAsc  SortOption = "deadline_asc"
	SortDeadlineDesc SortOption = "deadline_desc"
)

// Filter narrows a task query. The zero value returns every task on every
// list the user can reach.
type Filter struct {
	ListID       int64
	OnlyAssigned bool

	// Status flags combine with OR; all false means no status filtering.
	ShowComplete bool
	ShowOverdue  bool
	ShowPending  bool

	Priorities     []Priority
	DeadlineBefore *time.Time
	DeadlineAfter  *time.Time
	Tag            string
	TitleSearch    string

	SortBy SortOption
	Limit  int
	Offset int
}
