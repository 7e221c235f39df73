package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createKickCommand creates the /mod kick subcommand
func createKickCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"kick",
		"Expulsa a un usuario del servidor",
		"mod",
		kickHandler(m),
	).WithOptions(
		userOption("Usuario a expulsar"),
		reasonOption("Razón de la expulsión"),
	).WithUserPermissions(discordgo.PermissionKickMembers)
}

func kickHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.Reply("❌ Debes especificar un usuario.")
		}

		inf, err := m.Kick(ctx.Context(), moderation.KickRequest{
			GuildID:    ctx.GuildID(),
			ExecutorID: ctx.User().ID,
			TargetID:   user.ID,
			Reason:     reason(ctx),
		})
		if err != nil {
			return err
		}

		return ctx.ReplyEmbed(infractionEmbed(fmt.Sprintf("👢 %s ha sido expulsado", user.Username), user, inf, 0xFFA500))
	}
}
