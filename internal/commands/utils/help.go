package utils

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// createHelpCommand creates the /utils help subcommand
func createHelpCommand(reg *discord.Registry) *discord.Handler {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		helpHandler(reg),
	)
}

func helpHandler(reg *discord.Registry) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		return ctx.ReplyEmbed(helpEmbed(reg.All()))
	}
}

// helpEmbed lists the visible commands grouped by category, one field per category.
func helpEmbed(handlers []*discord.Handler) *discordgo.MessageEmbed {
	commands := lo.Filter(handlers, func(h *discord.Handler, _ int) bool {
		return h.Kind == discord.KindCommand && !h.IsDev
	})
	byCategory := lo.GroupBy(commands, func(h *discord.Handler) string { return h.Category })

	categories := lo.Keys(byCategory)
	slices.Sort(categories)

	embed := &discordgo.MessageEmbed{
		Title:  "📖 Ayuda de PancyMod",
		Color:  0x5865F2,
		Footer: &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
	}
	for _, category := range categories {
		lines := lo.Map(byCategory[category], func(h *discord.Handler, _ int) string { return helpLine(h) })
		slices.Sort(lines)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📂 " + category,
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

func helpLine(h *discord.Handler) string {
	if h.Type == discordgo.MessageApplicationCommand {
		return fmt.Sprintf("• `%s` - Menú contextual de mensaje", h.Name)
	}
	return fmt.Sprintf("• `/%s` - %s", strings.ReplaceAll(h.Matcher.Value, ".", " "), h.Description)
}
