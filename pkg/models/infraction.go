package models

import "time"

// InfractionType identifies the moderation action that produced an infraction.
type InfractionType string

const (
	InfractionMute InfractionType = "mute"
	InfractionBan  InfractionType = "ban"
	InfractionKick InfractionType = "kick"
)

// Infraction is the record left behind by a punitive action.
type Infraction struct {
	ID          string         `bson:"id" json:"id"`
	GuildID     string         `bson:"guildId" json:"guildId"`
	UserID      string         `bson:"userId" json:"userId"`
	ModeratorID string         `bson:"moderatorId" json:"moderatorId"`
	Type        InfractionType `bson:"type" json:"type"`
	Reason      string         `bson:"reason" json:"reason"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	ExpiresAt   *time.Time     `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}
