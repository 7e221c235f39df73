// Package mod provides the /mod command group, the purge context menu and the
// quick mute and infraction pager buttons.
package mod

import (
	"context"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const defaultReason = "Sin razón especificada"

// Moderator runs the moderation workflows. *moderation.Engine implements it.
type Moderator interface {
	Purge(ctx context.Context, req moderation.PurgeRequest) (moderation.PurgeResult, error)
	Mute(ctx context.Context, req moderation.MuteRequest) (*models.Infraction, error)
	Ban(ctx context.Context, req moderation.BanRequest) (*models.Infraction, error)
	Kick(ctx context.Context, req moderation.KickRequest) (*models.Infraction, error)
	HandleQuickMute(ctx context.Context, p moderation.QuickMuteParams) moderation.QuickMuteResult
	Infractions(ctx context.Context, guildID, userID string) ([]*models.Infraction, error)
}

// Register adds the /mod group and its companion handlers.
func Register(reg *discord.Registry, m Moderator) error {
	err := reg.RegisterGroup(
		"mod",
		"Comandos de moderación",
		createBanCommand(m),
		createKickCommand(m),
		createMuteCommand(m),
		createQuickMuteCommand(m),
		createPurgeCommand(m),
		createInfractionsCommand(m),
	)
	if err != nil {
		return err
	}

	for _, h := range []*discord.Handler{
		createPurgeAuthorCommand(m),
		createQuickMuteButton(m),
		createInfractionsPager(m),
	} {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: description,
		Required:    true,
	}
}

func reasonOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "razon",
		Description: description,
		Required:    false,
	}
}

func reason(ctx *discord.Context) string {
	if r := ctx.GetStringOption("razon"); r != "" {
		return r
	}
	return defaultReason
}

func floatPtr(v float64) *float64 { return &v }

// infractionEmbed summarizes an applied sanction.
func infractionEmbed(title string, user *discordgo.User, inf *models.Infraction, color int) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Usuario", Value: "<@" + user.ID + ">", Inline: true},
		{Name: "Moderador", Value: "<@" + inf.ModeratorID + ">", Inline: true},
		{Name: "Razón", Value: inf.Reason},
	}
	if inf.ExpiresAt != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Expira",
			Value: discordTimestamp(*inf.ExpiresAt, "R"),
		})
	}
	return &discordgo.MessageEmbed{
		Title:  title,
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: "ID: " + inf.ID},
	}
}
