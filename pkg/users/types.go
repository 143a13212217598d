// Package users provides the user directory: lookups by id and email for
// invite resolution and task assignment. Identity itself (passwords,
// sessions) lives outside this service; rows here mirror the identity
// provider's users.
package users

import "time"

// User is a directory entry.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
