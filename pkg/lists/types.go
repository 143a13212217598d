// Package lists manages task lists and the ownership lifecycle: creation
// (creator becomes owner), transfer (atomic owner swap) and deletion
// (cascades to tasks, tags, invites and access records).
package lists

import "time"

// List is a shared task list.
type List struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}
