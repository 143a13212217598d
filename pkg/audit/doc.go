// Package audit records authorization-relevant mutations: grants, revocations,
// role changes, ownership transfers and invite lifecycle events.
//
// The trail answers "who gave this user access, and when" after the fact,
// which a pure (user, list, role) table cannot. Recording is best-effort by
// design: a failed audit write is logged but never fails the operation it
// describes.
package audit
