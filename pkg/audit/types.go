package audit

import "time"

// Action identifies what happened.
type Action string

const (
	ActionAccessGranted     Action = "access.granted"
	ActionAccessRevoked     Action = "access.revoked"
	ActionRoleChanged       Action = "access.role_changed"
	ActionOwnershipTransfer Action = "list.ownership_transferred"
	ActionInviteCreated     Action = "invite.created"
	ActionInviteAccepted    Action = "invite.accepted"
	ActionInviteRejected    Action = "invite.rejected"
	ActionInviteDeleted     Action = "invite.deleted"
	ActionListDeleted       Action = "list.deleted"
)

// Event is a single audit trail entry.
type Event struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     Action    `json:"action"`
	ListID     int64     `json:"list_id"`
	SubjectID  string    `json:"subject_id,omitempty"` // user the action applies to, if any
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
