// Package invites implements the invitation workflow: a list owner invites
// users by email, the invited user accepts (gaining viewer access) or
// rejects, and the owner may withdraw a pending invite. At most one pending
// invite exists per (user, list) pair. Invites expire; a background sweeper
// purges expired rows.
package invites

import "time"

// Invite is a pending offer of viewer access to a list.
type Invite struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the invite has passed its expiry.
func (i Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
