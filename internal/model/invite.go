package model

import "time"

// InviteStatus is the persisted lifecycle status of an invite. There is no
// stored "expired" status: expiry is a read-time judgment against ExpiresAt,
// so a pending invite past its deadline is treated as expired without ever
// being written back.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

// InviteTTL is how long an invite stays acceptable after creation.
const InviteTTL = 7 * 24 * time.Hour

type Invite struct {
	ID         string       `json:"id"`
	FamilyID   string       `json:"family_id"`
	FamilyName string       `json:"family_name"` // denormalized for display without a join
	InvitedBy  string       `json:"invited_by"`
	Status     InviteStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

// Expired reports whether the invite's deadline has passed at the given time.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Acceptable reports whether the invite is still pending and unexpired.
func (i *Invite) Acceptable(now time.Time) bool {
	return i.Status == InviteStatusPending && !i.Expired(now)
}
