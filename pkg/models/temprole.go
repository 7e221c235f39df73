package models

import "time"

// TemporaryRole is a role granted to one or more users until ExpiresAt.
// RequestMessageID identifies the role-request message it was approved from.
type TemporaryRole struct {
	RequestMessageID string    `bson:"requestMessageId" json:"requestMessageId"`
	RoleID           string    `bson:"roleId" json:"roleId"`
	GuildID          string    `bson:"guildId" json:"guildId"`
	UserIDs          []string  `bson:"users" json:"users"`
	ExpiresAt        time.Time `bson:"expiresAt" json:"expiresAt"`
	Permanent        bool      `bson:"permanent" json:"permanent"`
	ApprovedBy       string    `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

// IsDue reports whether the grant should already have been revoked at now.
// Permanent grants are never due.
func (r *TemporaryRole) IsDue(now time.Time) bool {
	if r.Permanent {
		return false
	}
	return !r.ExpiresAt.After(now)
}

// Remaining returns the time left before expiry. It is zero when due or permanent.
func (r *TemporaryRole) Remaining(now time.Time) time.Duration {
	if r.Permanent || r.IsDue(now) {
		return 0
	}
	return r.ExpiresAt.Sub(now)
}
