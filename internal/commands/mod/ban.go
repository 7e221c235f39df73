package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createBanCommand creates the /mod ban subcommand
func createBanCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"mod",
		banHandler(m),
	).WithOptions(
		userOption("Usuario a banear"),
		reasonOption("Razón del ban"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "dias",
			Description: "Días de mensajes a eliminar (0-7)",
			Required:    false,
			MinValue:    floatPtr(0),
			MaxValue:    7,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers)
}

func banHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.Reply("❌ Debes especificar un usuario.")
		}

		inf, err := m.Ban(ctx.Context(), moderation.BanRequest{
			GuildID:    ctx.GuildID(),
			ExecutorID: ctx.User().ID,
			TargetID:   user.ID,
			Reason:     reason(ctx),
			DeleteDays: int(ctx.GetIntOption("dias")),
		})
		if err != nil {
			return err
		}

		return ctx.ReplyEmbed(infractionEmbed(fmt.Sprintf("🔨 %s ha sido baneado", user.Username), user, inf, 0xFF0000))
	}
}
