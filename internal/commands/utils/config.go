package utils

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// Sections of /config.
const (
	SectionEmojis   = "emojis"
	SectionLogs     = "logs"
	SectionChannels = "canales"
	SectionCommands = "comandos"
)

// createConfigCommand creates /config, a read-only view of the guild configuration.
func createConfigCommand() *discord.Handler {
	return discord.NewCommand(
		"config",
		"Muestra la configuración del servidor",
		"config",
		configHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "seccion",
			Description: "Sección a mostrar",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Emojis de moderación", Value: SectionEmojis},
				{Name: "Canales de logs", Value: SectionLogs},
				{Name: "Canales públicos", Value: SectionChannels},
				{Name: "Comandos personalizados", Value: SectionCommands},
			},
		},
	).WithUserPermissions(discordgo.PermissionManageGuild)
}

func configHandler(ctx *discord.Context) error {
	section := ctx.GetStringOption("seccion")
	lines, ok := configSection(ctx.Guild, section)
	if !ok {
		return ctx.Reply("❌ Sección desconocida.")
	}

	description := "Sin configuración."
	if len(lines) > 0 {
		description = strings.Join(lines, "\n")
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "⚙️ Configuración: " + section,
		Description: description,
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
	})
}

// configSection renders one section as sorted lines. ok is false for an unknown section.
func configSection(g *config.GuildConfig, section string) (lines []string, ok bool) {
	if g == nil {
		g = &config.GuildConfig{}
	}
	switch section {
	case SectionEmojis:
		lines = lo.MapToSlice(g.ModerationEmojis, func(k, v string) string { return fmt.Sprintf("• %s: %s", k, v) })
	case SectionLogs:
		lines = lo.MapToSlice(g.LoggingChannels, func(k, v string) string { return fmt.Sprintf("• %s → <#%s>", k, v) })
	case SectionChannels:
		lines = lo.Map(g.PublicChannels, func(id string, _ int) string { return fmt.Sprintf("• <#%s>", id) })
	case SectionCommands:
		lines = lo.Map(g.CustomCommandChoices, func(c config.Choice, _ int) string { return fmt.Sprintf("• %s → `%s`", c.Name, c.Value) })
	default:
		return nil, false
	}
	slices.Sort(lines)
	return lines, true
}
