package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// onGuildMemberAdd is called when a new member joins the server
func (l *listeners) onGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	logger.Info(fmt.Sprintf("👋 Nuevo miembro: %s en servidor %s", m.User.Username, m.GuildID), "Member")

	fields := []*discordgo.MessageEmbedField{{Name: "Usuario", Value: m.User.Username, Inline: true}}
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Cuenta creada",
			Value:  fmt.Sprintf("<t:%d:R>", created.Unix()),
			Inline: true,
		})
	}
	if m.User.Bot {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Bot", Value: "Sí", Inline: true})
	}

	l.audit(m.GuildID, auditlog.Event{
		Name:        auditlog.EventMemberJoin,
		Title:       "👋 Nuevo miembro",
		Description: fmt.Sprintf("<@%s> se unió al servidor.", m.User.ID),
		Color:       0x00ff00,
		TargetID:    m.User.ID,
		Fields:      fields,
	})
}

// onGuildMemberRemove is called when a member leaves the server
func (l *listeners) onGuildMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	logger.Info(fmt.Sprintf("👋 Adiós: %s salió del servidor %s", m.User.Username, m.GuildID), "Member")

	l.audit(m.GuildID, auditlog.Event{
		Name:        auditlog.EventMemberLeave,
		Title:       "🚪 Miembro salió",
		Description: fmt.Sprintf("**%s** (<@%s>) ha salido del servidor.", m.User.Username, m.User.ID),
		Color:       0xe74c3c,
		TargetID:    m.User.ID,
	})
}
