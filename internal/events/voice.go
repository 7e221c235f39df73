package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// onVoiceStateUpdate is called when a user's voice state changes. Only moves
// between channels are audited; joins and leaves are logged.
func (l *listeners) onVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil {
		return
	}
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}

	switch {
	case before == "" && v.ChannelID != "":
		logger.Debug(fmt.Sprintf("🎤 %s se unió a %s", v.UserID, v.ChannelID), "Voice")
	case before != "" && v.ChannelID == "":
		logger.Debug(fmt.Sprintf("🔇 %s salió del canal de voz %s", v.UserID, before), "Voice")
	case before != "" && before != v.ChannelID:
		logger.Debug(fmt.Sprintf("🔄 %s: %s → %s", v.UserID, before, v.ChannelID), "Voice")
		l.audit(v.GuildID, auditlog.Event{
			Name:        auditlog.EventVoiceMove,
			Title:       "🔄 Cambio de canal de voz",
			Description: fmt.Sprintf("<@%s>: <#%s> → <#%s>", v.UserID, before, v.ChannelID),
			Color:       0x3498db,
			TargetID:    v.UserID,
		})
	}
}
