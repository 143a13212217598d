// Package errs defines the error taxonomy shared by all resource services.
//
// Every failure in the core is a deterministic function of its input, so none
// of these errors is ever retried; the HTTP layer maps them to status codes
// (ErrAccessDenied -> 403, ErrNotFound -> 404, ErrDuplicate -> 409,
// ErrInvariant -> 500). Services wrap these sentinels with context using %w so
// callers can test with errors.Is.
package errs

import "errors"

var (
	// ErrAccessDenied indicates the caller lacks the required role on a list,
	// or a child resource does not belong to the parent the caller named.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound indicates a referenced list, task, comment, invite or user
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique-constraint conflict, e.g. granting
	// access a user already has or inviting a user with a pending invite.
	ErrDuplicate = errors.New("already exists")

	// ErrInvariant indicates a multi-row update could not complete
	// consistently. Ownership transfer fails closed with this rather than
	// leaving a list with zero or two owners.
	ErrInvariant = errors.New("invariant violation")

	// ErrInvalid indicates malformed input that no store round-trip can fix,
	// e.g. an unknown role name or an empty user id.
	ErrInvalid = errors.New("invalid argument")
)
