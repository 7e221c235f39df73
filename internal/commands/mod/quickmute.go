package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// QuickMuteID builds the custom ID of a quick mute button.
func QuickMuteID(d moderation.QuickMuteDuration, userID string) string {
	return QuickMutePrefix + string(d) + "-" + userID
}

// parseQuickMuteID splits quickmute-<duration>-<user>.
func parseQuickMuteID(customID string) (moderation.QuickMuteDuration, string, bool) {
	rest, ok := strings.CutPrefix(customID, QuickMutePrefix)
	if !ok {
		return "", "", false
	}
	d, user, ok := strings.Cut(rest, "-")
	if !ok || d == "" || user == "" {
		return "", "", false
	}
	return moderation.QuickMuteDuration(d), user, true
}

func createQuickMuteButton(m Moderator) *discord.Handler {
	return discord.NewComponent(QuickMutePrefix, quickMuteButtonHandler(m)).
		WithUserPermissions(discordgo.PermissionModerateMembers)
}

func quickMuteButtonHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		d, userID, ok := parseQuickMuteID(ctx.CustomID())
		if !ok {
			return ctx.ReplyEphemeral("❌ Botón no válido.")
		}

		res := m.HandleQuickMute(ctx.Context(), moderation.QuickMuteParams{
			GuildID:    ctx.GuildID(),
			ExecutorID: ctx.User().ID,
			TargetID:   userID,
			Duration:   d,
		})
		if res.Err != nil {
			logger.Warn(fmt.Sprintf("Quick mute de %s fallido: %v", userID, res.Err), "CMD-Mod")
		}
		return ctx.ReplyEphemeral(res.Response)
	}
}
