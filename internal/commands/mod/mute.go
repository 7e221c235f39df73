package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// createMuteCommand creates the /mod mute subcommand
func createMuteCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario temporalmente",
		"mod",
		muteHandler(m),
	).WithOptions(
		userOption("Usuario a silenciar"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "duracion",
			Description: "Duración en minutos",
			Required:    true,
			MinValue:    floatPtr(1),
			MaxValue:    moderation.MaxMute.Minutes(),
		},
		reasonOption("Razón del silencio"),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func muteHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.Reply("❌ Debes especificar un usuario.")
		}

		minutes := ctx.GetIntOption("duracion")
		d := time.Duration(minutes) * time.Minute
		if minutes < 1 || d > moderation.MaxMute {
			return ctx.Reply("❌ La duración debe estar entre 1 minuto y 28 días.")
		}

		inf, err := m.Mute(ctx.Context(), moderation.MuteRequest{
			GuildID:    ctx.GuildID(),
			ExecutorID: ctx.User().ID,
			TargetID:   user.ID,
			Duration:   d,
			Reason:     reason(ctx),
		})
		if err != nil {
			return err
		}

		return ctx.ReplyEmbed(infractionEmbed(fmt.Sprintf("🔇 %s ha sido silenciado", user.Username), user, inf, 0x3498DB))
	}
}

// createQuickMuteCommand creates the /mod quickmute subcommand with the preset durations.
func createQuickMuteCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"quickmute",
		"Silencia a un usuario con una duración predefinida",
		"mod",
		quickMuteHandler(m),
	).WithOptions(
		userOption("Usuario a silenciar"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración del silencio",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "30 minutos", Value: string(moderation.QuickMuteShort)},
				{Name: "1 hora", Value: string(moderation.QuickMuteLong)},
			},
		},
		reasonOption("Razón del silencio"),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func quickMuteHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.Reply("❌ Debes especificar un usuario.")
		}

		res := m.HandleQuickMute(ctx.Context(), moderation.QuickMuteParams{
			GuildID:    ctx.GuildID(),
			ExecutorID: ctx.User().ID,
			TargetID:   user.ID,
			Duration:   moderation.QuickMuteDuration(ctx.GetStringOption("duracion")),
			Reason:     ctx.GetStringOption("razon"),
		})
		if res.Err != nil {
			logger.Warn(fmt.Sprintf("Quick mute de %s fallido: %v", user.ID, res.Err), "CMD-Mod")
		}
		return ctx.Reply(res.Response)
	}
}
