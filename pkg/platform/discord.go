package platform

import (
	"context"
	"errors"
	"time"

	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// Discord implements Client over a discordgo session.
type Discord struct {
	session *discordgo.Session
}

// NewDiscord wraps an opened or unopened session.
func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{session: s}
}

// RecentMessages implements Client.
func (d *Discord) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if limit > BulkDeleteLimit {
		limit = BulkDeleteLimit
	}
	msgs, err := d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, boterrors.Transport("fetch messages", translate(err))
	}

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		msg := Message{ID: m.ID, CreatedAt: m.Timestamp}
		if m.Author != nil {
			msg.AuthorID = m.Author.ID
		}
		switch {
		case m.InteractionMetadata != nil:
			msg.InteractionID = m.InteractionMetadata.ID
		case m.Interaction != nil:
			msg.InteractionID = m.Interaction.ID
		}
		if msg.CreatedAt.IsZero() {
			if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
				msg.CreatedAt = ts
			}
		}
		out = append(out, msg)
	}
	return out, nil
}

// DeleteMessages implements Client.
func (d *Discord) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	err := d.session.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
	return boterrors.Transport("bulk delete", translate(err))
}

// DeleteMessage implements Client.
func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return boterrors.Transport("delete message", translate(err))
}

// AddRole implements Client.
func (d *Discord) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	err := d.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	return boterrors.Transport("add role", translate(err))
}

// RemoveRole implements Client.
func (d *Discord) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	err := d.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	return boterrors.Transport("remove role", translate(err))
}

// MuteUser implements Client with a communication timeout.
func (d *Discord) MuteUser(ctx context.Context, guildID, userID string, until time.Time) error {
	err := d.session.GuildMemberTimeout(guildID, userID, &until, discordgo.WithContext(ctx))
	return boterrors.Transport("timeout member", translate(err))
}

// Ban implements Client.
func (d *Discord) Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error {
	err := d.session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays, discordgo.WithContext(ctx))
	return boterrors.Transport("ban member", translate(err))
}

// Kick implements Client.
func (d *Discord) Kick(ctx context.Context, guildID, userID, reason string) error {
	err := d.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
	return boterrors.Transport("kick member", translate(err))
}

// FetchMembers implements Client. State is consulted first, then REST.
func (d *Discord) FetchMembers(ctx context.Context, guildID string, userIDs []string) ([]Member, error) {
	out := make([]Member, 0, len(userIDs))
	for _, id := range userIDs {
		m, err := d.member(ctx, guildID, id)
		if errors.Is(err, ErrMemberNotFound) {
			continue
		}
		if err != nil {
			return out, boterrors.Transport("fetch member", err)
		}
		out = append(out, toMember(m))
	}
	return out, nil
}

func (d *Discord) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if d.session.State != nil {
		if m, err := d.session.State.Member(guildID, userID); err == nil && m != nil {
			return m, nil
		}
	}
	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// GuildRoles implements Client.
func (d *Discord) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	roles, err := d.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, boterrors.Transport("fetch roles", translate(err))
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, Role{ID: r.ID, Position: r.Position})
	}
	return out, nil
}

func toMember(m *discordgo.Member) Member {
	member := Member{RoleIDs: append([]string(nil), m.Roles...)}
	if m.User != nil {
		member.UserID = m.User.ID
		member.Bot = m.User.Bot
	}
	return member
}

// translate maps Discord's "unknown entity" codes onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return errors.Join(ErrMemberNotFound, err)
		case discordgo.ErrCodeUnknownMessage:
			return errors.Join(ErrMessageNotFound, err)
		}
	}
	return err
}
