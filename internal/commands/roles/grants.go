package roles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/temprole"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// createListCommand creates the /temprole list subcommand
func createListCommand(grants Grants) *discord.Handler {
	return discord.NewCommand(
		"list",
		"Lista los roles temporales activos del servidor",
		"roles",
		listHandler(grants),
	).WithUserPermissions(discordgo.PermissionManageRoles)
}

func listHandler(grants Grants) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		all, err := grants.Active(ctx.Context())
		if err != nil {
			return err
		}
		active := lo.Filter(all, func(r *models.TemporaryRole, _ int) bool { return r.GuildID == ctx.GuildID() })
		return ctx.ReplyEmbed(activeEmbed(active))
	}
}

func activeEmbed(active []*models.TemporaryRole) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  "⏳ Roles temporales activos",
		Color:  0x3498db,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("💫 - Developed by PancyStudios | %d activos", len(active))},
	}
	if len(active) == 0 {
		embed.Description = "No hay roles temporales activos en este servidor."
		return embed
	}

	var b strings.Builder
	for _, r := range active {
		until := "Permanente"
		if !r.Permanent {
			until = fmt.Sprintf("<t:%d:R>", r.ExpiresAt.Unix())
		}
		users := lo.Map(r.UserIDs, func(id string, _ int) string { return "<@" + id + ">" })
		fmt.Fprintf(&b, "<@&%s> → %s\n> Expira: %s · `%s`\n", r.RoleID, strings.Join(users, ", "), until, r.RequestMessageID)
	}
	embed.Description = b.String()
	return embed
}

// createRevokeCommand creates the /temprole revoke subcommand
func createRevokeCommand(grants Grants) *discord.Handler {
	return discord.NewCommand(
		"revoke",
		"Retira un rol temporal antes de que expire",
		"roles",
		revokeHandler(grants),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "solicitud",
			Description: "ID del mensaje de la solicitud",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionManageRoles)
}

func revokeHandler(grants Grants) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		id := strings.TrimSpace(ctx.GetStringOption("solicitud"))
		rec, err := grants.Revoke(ctx.Context(), id, ctx.User().ID)
		if errors.Is(err, temprole.ErrGrantNotFound) {
			return ctx.Reply("❌ No hay un rol temporal activo para esa solicitud.")
		}
		if err != nil {
			return err
		}
		return ctx.Reply(fmt.Sprintf("🗑️ Se retiró <@&%s> a %d usuarios.", rec.RoleID, len(rec.UserIDs)))
	}
}

func createRemoveButton(grants Grants) *discord.Handler {
	return discord.NewComponent(temprole.RemoveButtonPrefix, removeHandler(grants)).
		WithUserPermissions(discordgo.PermissionManageRoles).
		WithDeferral(discord.DeferDefer)
}

// removeHandler revokes the grant behind a log message button and closes that message.
func removeHandler(grants Grants) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		id := strings.TrimPrefix(ctx.CustomID(), temprole.RemoveButtonPrefix)
		_, err := grants.Revoke(ctx.Context(), id, ctx.User().ID)
		switch {
		case errors.Is(err, temprole.ErrGrantNotFound):
			return ctx.Update(closedLog(ctx.Message(), "Estado", "⌛ Ya no estaba activo"))
		case err != nil:
			return err
		}
		return ctx.Update(closedLog(ctx.Message(), "Retirado por", "<@"+ctx.User().ID+">"))
	}
}

// closedLog copies the log embed, appends a field and drops the buttons.
func closedLog(msg *discordgo.Message, name, value string) *discordgo.InteractionResponseData {
	embed := &discordgo.MessageEmbed{Title: "Rol temporal"}
	if msg != nil && len(msg.Embeds) > 0 && msg.Embeds[0] != nil {
		cp := *msg.Embeds[0]
		cp.Fields = append([]*discordgo.MessageEmbedField(nil), msg.Embeds[0].Fields...)
		embed = &cp
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value})
	return &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{},
	}
}
