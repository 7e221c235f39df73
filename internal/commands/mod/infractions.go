package mod

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const (
	// InfractionsPrefix starts the pager custom IDs: inf-search-<user>-<page>.
	InfractionsPrefix  = "inf-search-"
	infractionsPerPage = 5
)

// createInfractionsCommand creates the /mod infractions subcommand
func createInfractionsCommand(m Moderator) *discord.Handler {
	return discord.NewCommand(
		"infractions",
		"Lista las sanciones de un usuario",
		"mod",
		infractionsHandler(m),
	).WithOptions(
		userOption("Usuario a buscar"),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func infractionsHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.Reply("❌ Debes especificar un usuario.")
		}

		infs, err := m.Infractions(ctx.Context(), ctx.GuildID(), user.ID)
		if err != nil {
			return err
		}
		return ctx.ReplyComplex(infractionsPage(infs, user.ID, 0))
	}
}

func createInfractionsPager(m Moderator) *discord.Handler {
	return discord.NewComponent(InfractionsPrefix, infractionsPagerHandler(m)).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		WithDeferral(discord.DeferDefer)
}

func infractionsPagerHandler(m Moderator) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		userID, page, ok := parsePageID(ctx.CustomID())
		if !ok {
			return ctx.ReplyEphemeral("❌ Botón no válido.")
		}

		infs, err := m.Infractions(ctx.Context(), ctx.GuildID(), userID)
		if err != nil {
			return err
		}
		return ctx.Update(infractionsPage(infs, userID, page))
	}
}

// parsePageID reads inf-search-<user>-<page>[-suffix].
func parsePageID(customID string) (string, int, bool) {
	rest, ok := strings.CutPrefix(customID, InfractionsPrefix)
	if !ok {
		return "", 0, false
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 2 || parts[0] == "" {
		return "", 0, false
	}
	page, err := strconv.Atoi(parts[1])
	if err != nil || page < 0 {
		return "", 0, false
	}
	return parts[0], page, true
}

// pageID builds a pager button ID. The suffix keeps both buttons unique on a single page.
func pageID(userID string, page int, suffix string) string {
	return fmt.Sprintf("%s%s-%d-%s", InfractionsPrefix, userID, page, suffix)
}

// infractionsPage renders one page, newest first. The page is clamped to the available range.
func infractionsPage(infs []*models.Infraction, userID string, page int) *discordgo.InteractionResponseData {
	embed := &discordgo.MessageEmbed{
		Title: "🔖 - Lista de sanciones",
		Color: 0xFFA500,
	}

	if len(infs) == 0 {
		embed.Color = 0x00FF00
		embed.Description = fmt.Sprintf("No se han encontrado sanciones de <@%s> en este servidor.", userID)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"}
		return &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{},
		}
	}

	pages := lo.Chunk(infs, infractionsPerPage)
	page = max(0, min(page, len(pages)-1))

	var b strings.Builder
	fmt.Fprintf(&b, "Usuario: <@%s>\n> 💫 - **Cantidad de sanciones:** %d\n\n", userID, len(infs))
	for _, inf := range pages[page] {
		fmt.Fprintf(&b, "**%s** `%s` por <@%s> %s\n> %s\n",
			strings.ToUpper(string(inf.Type)), shortID(inf.ID), inf.ModeratorID, discordTimestamp(inf.CreatedAt, "R"), inf.Reason)
	}
	embed.Description = b.String()
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("💫 - Developed by PancyStudios | Página %d/%d", page+1, len(pages)),
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Anterior",
					Style:    discordgo.SecondaryButton,
					CustomID: pageID(userID, max(page-1, 0), "prev"),
					Disabled: page == 0,
				},
				discordgo.Button{
					Label:    "Siguiente",
					Style:    discordgo.SecondaryButton,
					CustomID: pageID(userID, min(page+1, len(pages)-1), "next"),
					Disabled: page >= len(pages)-1,
				},
			}},
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func discordTimestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}
