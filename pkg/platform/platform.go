// Package platform is the narrow contract the moderation core uses to talk to
// Discord. Discord implements it over a discordgo session; platformtest
// provides an in-memory fake.
package platform

import (
	"context"
	"errors"
	"time"
)

// BulkDeleteLimit is the most message IDs one bulk delete call accepts.
const BulkDeleteLimit = 100

// BulkDeleteMaxAge is how old a message may be and still be bulk deleted.
const BulkDeleteMaxAge = 14 * 24 * time.Hour

var (
	// ErrMemberNotFound means the user is not (or no longer) a member of the guild.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMessageNotFound means the message was already deleted.
	ErrMessageNotFound = errors.New("message not found")
)

// Message is the part of a channel message the purge logic needs.
type Message struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
	// InteractionID is set when the message is the response to an interaction.
	InteractionID string
}

// Member is a guild member with the IDs of the roles it holds.
type Member struct {
	UserID  string
	RoleIDs []string
	Bot     bool
}

// HasRole reports whether the member holds roleID.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Role is a guild role and its hierarchy position.
type Role struct {
	ID       string
	Position int
}

// Client is every platform operation the core performs. Every call may fail
// with a transport error.
type Client interface {
	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	// DeleteMessages removes a batch of at most BulkDeleteLimit messages younger than BulkDeleteMaxAge.
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	MuteUser(ctx context.Context, guildID, userID string, until time.Time) error
	Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error
	Kick(ctx context.Context, guildID, userID, reason string) error

	// FetchMembers returns the members found. Users that left are omitted.
	FetchMembers(ctx context.Context, guildID string, userIDs []string) ([]Member, error)
	GuildRoles(ctx context.Context, guildID string) ([]Role, error)
}
