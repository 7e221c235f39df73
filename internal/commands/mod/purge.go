package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// QuickMutePrefix starts the custom ID of the quick mute buttons: quickmute-<short|long>-<user>.
const QuickMutePrefix = "quickmute-"

// createPurgeCommand creates the /mod purge subcommand
func createPurgeCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"purge",
		"Elimina mensajes recientes del canal",
		"mod",
		purgeHandler(m),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "cantidad",
			Description: "Mensajes a revisar (1-100)",
			Required:    true,
			MinValue:    floatPtr(1),
			MaxValue:    moderation.MaxPurge,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Solo mensajes de este usuario",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionManageMessages).
		WithDeferral(discord.DeferDefer)
}

func purgeHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		req := moderation.PurgeRequest{
			GuildID:    ctx.GuildID(),
			ChannelID:  ctx.ChannelID(),
			ExecutorID: ctx.User().ID,
			Amount:     int(ctx.GetIntOption("cantidad")),

			ExcludeInteractionID: ctx.Interaction.ID,
		}
		if user := ctx.GetUserOption("usuario"); user != nil {
			req.TargetID = user.ID
		}

		res, err := m.Purge(ctx.Context(), req)
		if err != nil && res.Deleted == 0 {
			return err
		}
		if err != nil {
			logger.Warn(fmt.Sprintf("Purga parcial en %s: %v", req.ChannelID, err), "CMD-Mod")
		}
		return ctx.Reply(purgeSummary(res, err))
	}
}

// createPurgeAuthorCommand creates the message context menu that purges the
// author of the selected message and offers quick mute buttons.
func createPurgeAuthorCommand(m Moderator) *discord.Handler {
	return discord.NewMessageCommand(
		"Purgar mensajes del autor",
		"mod",
		purgeAuthorHandler(m),
	).WithUserPermissions(discordgo.PermissionManageMessages).
		WithEphemeral(true).
		WithDeferral(discord.DeferDefer)
}

func purgeAuthorHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		msg := ctx.TargetMessage()
		if msg == nil || msg.Author == nil {
			return ctx.Reply("❌ No se pudo leer el mensaje seleccionado.")
		}

		res, err := m.Purge(ctx.Context(), moderation.PurgeRequest{
			GuildID:    ctx.GuildID(),
			ChannelID:  ctx.ChannelID(),
			TargetID:   msg.Author.ID,
			ExecutorID: ctx.User().ID,
			Amount:     moderation.MaxPurge,

			ExcludeInteractionID: ctx.Interaction.ID,
		})
		if err != nil && res.Deleted == 0 {
			return err
		}

		return ctx.ReplyComplex(&discordgo.InteractionResponseData{
			Content:    purgeSummary(res, err),
			Components: quickMuteButtons(msg.Author.ID),
		})
	}
}

func purgeSummary(res moderation.PurgeResult, err error) string {
	if err != nil {
		return fmt.Sprintf("⚠️ Se eliminaron %d mensajes antes de un error (%d revisados).", res.Deleted, res.Scanned)
	}
	if res.Deleted == 0 {
		return fmt.Sprintf("🧹 No había mensajes para eliminar (%d revisados).", res.Scanned)
	}
	return fmt.Sprintf("🧹 Se eliminaron %d mensajes (%d revisados).", res.Deleted, res.Scanned)
}

func quickMuteButtons(userID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Silenciar 30m",
				Style:    discordgo.SecondaryButton,
				CustomID: QuickMuteID(moderation.QuickMuteShort, userID),
				Emoji:    &discordgo.ComponentEmoji{Name: "🔇"},
			},
			discordgo.Button{
				Label:    "Silenciar 1h",
				Style:    discordgo.DangerButton,
				CustomID: QuickMuteID(moderation.QuickMuteLong, userID),
				Emoji:    &discordgo.ComponentEmoji{Name: "🔇"},
			},
		}},
	}
}
