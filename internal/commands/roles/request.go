package roles

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/rolerequest"
	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const permanentKeyword = "permanente"

var snowflake = regexp.MustCompile(`\d{17,20}`)

// parseUsers extracts user IDs from mentions or raw IDs, keeping the first occurrence.
func parseUsers(raw string) []string {
	return lo.Uniq(snowflake.FindAllString(raw, -1))
}

// createRequestCommand creates the /temprole request subcommand
func createRequestCommand(audit auditlog.Sink) *discord.Handler {
	return discord.NewCommand(
		"request",
		"Solicita un rol temporal para uno o varios usuarios",
		"roles",
		requestHandler(audit),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol",
			Description: "Rol solicitado",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "usuarios",
			Description: "Menciones o IDs de los usuarios",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración (ej. 7d, 12h, 1d12h) o \"permanente\"",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Motivo de la solicitud",
			Required:    false,
		},
	).WithEphemeral(false).
		WithDeferral(discord.DeferNone)
}

func requestHandler(audit auditlog.Sink) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		roleID := ctx.GetRoleOption("rol")
		users := parseUsers(ctx.GetStringOption("usuarios"))
		if roleID == "" || len(users) == 0 {
			return ctx.ReplyEphemeral("❌ Debes indicar un rol y al menos un usuario.")
		}

		details := rolerequest.Details{
			RequesterID: ctx.User().ID,
			RoleID:      roleID,
			UserIDs:     users,
			Reason:      ctx.GetStringOption("razon"),
		}
		raw := strings.TrimSpace(ctx.GetStringOption("duracion"))
		if strings.EqualFold(raw, permanentKeyword) {
			details.Permanent = true
		} else {
			d, err := rolerequest.ParseDuration(raw)
			if err != nil {
				return ctx.ReplyEphemeral("❌ Duración no válida. Usa por ejemplo `7d`, `12h`, `1d12h` o `permanente`.")
			}
			details.Duration = d
		}

		if err := ctx.ReplyComplex(rolerequest.New(details).ResponseData()); err != nil {
			return err
		}

		auditlog.Send(ctx.Context(), audit, ctx.GuildID(), auditlog.Event{
			Name:        auditlog.EventRoleRequested,
			Title:       "📝 Rol temporal solicitado",
			Description: fmt.Sprintf("<@%s> solicitó <@&%s> en <#%s>.", details.RequesterID, roleID, ctx.ChannelID()),
			Color:       0x3498db,
			ActorID:     details.RequesterID,
		})
		return nil
	}
}
