// Package auditlog delivers moderation and lifecycle events to the logging
// channel configured for each guild, optionally mirroring them to MQTT.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Event names double as keys of GuildConfig.LoggingChannels.
const (
	EventPurge         = "purge"
	EventMute          = "mute"
	EventBan           = "ban"
	EventKick          = "kick"
	EventRoleGranted   = "roleGranted"
	EventRoleExpired   = "roleExpired"
	EventRoleRevoked   = "roleRevoked"
	EventRoleRequested = "roleRequested"
	EventMemberJoin    = "memberJoin"
	EventMemberLeave   = "memberLeave"
	EventVoiceMove     = "voiceMove"
	EventThreadUpdate  = "threadUpdate"
)

// Event is one audit entry.
type Event struct {
	Name        string                         `json:"name"`
	Title       string                         `json:"title"`
	Description string                         `json:"description"`
	Color       int                            `json:"color"`
	ActorID     string                         `json:"actorId,omitempty"`
	TargetID    string                         `json:"targetId,omitempty"`
	Fields      []*discordgo.MessageEmbedField `json:"fields,omitempty"`
	Components  []discordgo.MessageComponent   `json:"-"`
	Timestamp   time.Time                      `json:"timestamp"`
}

// Embed renders the event for a Discord channel.
func (e Event) Embed() *discordgo.MessageEmbed {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		Fields:      e.Fields,
		Timestamp:   ts.Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
	}
}

// Sink sends an event for a guild. A nil message with a nil error means the
// guild has no destination configured for the event.
type Sink interface {
	SendLog(ctx context.Context, guildID string, ev Event) (*discordgo.Message, error)
}

// MessageSender is the discordgo call the channel sink uses.
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Publisher mirrors events to a broker.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// ChannelSink resolves the guild logging channel and posts the event there.
type ChannelSink struct {
	sender MessageSender
	guilds config.GuildProvider
	mirror Publisher
}

// NewChannelSink creates a sink. mirror may be nil.
func NewChannelSink(sender MessageSender, guilds config.GuildProvider, mirror Publisher) *ChannelSink {
	return &ChannelSink{sender: sender, guilds: guilds, mirror: mirror}
}

// SendLog implements Sink.
func (s *ChannelSink) SendLog(ctx context.Context, guildID string, ev Event) (*discordgo.Message, error) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if s.mirror != nil {
		if err := s.mirror.Publish(Topic(ev.Name), mirrorPayload{GuildID: guildID, Event: ev}); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo reenviar el evento %s por MQTT: %v", ev.Name, err), "AuditLog")
		}
	}

	channelID, ok := s.guilds.Guild(guildID).LogChannel(ev.Name)
	if !ok {
		return nil, nil
	}

	msg, err := s.sender.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ev.Embed()},
		Components: ev.Components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("send audit log %s: %w", ev.Name, err)
	}
	return msg, nil
}

// Topic is the MQTT topic an event is mirrored to.
func Topic(event string) string {
	return "pancymod/audit/" + event
}

type mirrorPayload struct {
	GuildID string `json:"guildId"`
	Event   Event  `json:"event"`
}

// Nop discards every event.
type Nop struct{}

// SendLog implements Sink.
func (Nop) SendLog(context.Context, string, Event) (*discordgo.Message, error) { return nil, nil }

// Send is the fire-and-forget form used by callers that only log delivery problems.
func Send(ctx context.Context, sink Sink, guildID string, ev Event) {
	if sink == nil {
		return
	}
	msg, err := sink.SendLog(ctx, guildID, ev)
	switch {
	case err != nil:
		logger.Warn(fmt.Sprintf("Error enviando log de auditoría: %v", err), "AuditLog")
	case msg == nil:
		logger.Debug(fmt.Sprintf("Sin canal de logs para '%s' en %s", ev.Name, guildID), "AuditLog")
	}
}
