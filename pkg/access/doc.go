// Package access implements the hierarchical access-control core.
//
// # Overview
//
// Access to a list and everything beneath it (tasks, comments, tags, invites)
// is governed by a per-list role: viewer, editor or owner. Grants are stored
// at list granularity only; checks against a task resolve to the owning
// list's access set. The package provides three layers:
//
//   - Store: durable (user_id, list_id, role) tuples over database/sql
//   - Service: query/grant/revoke operations shared by all resource services
//   - Gate: the reusable permission-check primitive every mutating operation
//     calls before touching persistence
//
// # Gate semantics
//
// HasAccess answers "does this user hold at least this level on this list",
// where the list is named directly (FromList) or through a task id
// (FromTask). A missing record yields false, not an error; callers translate
// false into an access-denied failure with contextual messaging.
//
// Levels are ordered: owner satisfies editor satisfies viewer. The
// AssignedUser level is special: at the gate it only tests record presence
// (same as viewer), because the gate cannot know which child resource the
// caller is acting on. The "acting user is the assignee/author, or holds
// editor" half of that check belongs to the resource service, which loads the
// child row anyway to verify it belongs to the parent the caller named. See
// tasks.Service and comments.Service for the pattern.
//
// # Freshness
//
// No layer caches authorization data. Every check re-queries the store, so a
// revocation takes effect on the next request at the latest.
package access
