package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand(d Deps) *discord.Handler {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"utils",
		statsHandler(d),
	)
}

func statsHandler(d Deps) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		s := d.Stats()

		embed := &discordgo.MessageEmbed{
			Title: "📊 Estadísticas del Bot",
			Color: 0x5865F2,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "🤖 Versión del Bot", Value: config.Version, Inline: true},
				{Name: "🐹 Versión de Go", Value: strings.TrimPrefix(s.GoVersion, "go"), Inline: true},
				{Name: "📚 Versión de DiscordGo", Value: discordgo.VERSION, Inline: true},
				{Name: "🖥 Uso de RAM", Value: fmt.Sprintf("%d MB heap / %d de %d MB (%.1f%%)", s.HeapMB, s.MemUsedMB, s.MemTotalMB, s.MemUsedPercent), Inline: true},
				{Name: "⚙️ Uso de CPU", Value: fmt.Sprintf("%.1f%% · %d Goroutines / %d CPUs", s.CPUPercent, s.Goroutines, s.CPUCount), Inline: true},
				{Name: "⏱ Uptime", Value: formatDuration(d.Bot.Uptime()), Inline: true},
				{Name: "🏠 Guilds", Value: fmt.Sprintf("%d", d.Bot.GuildCount()), Inline: true},
			},
			Footer:    &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if s.Platform != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "💻 Sistema", Value: s.Platform, Inline: true})
		}

		return ctx.ReplyEmbed(embed)
	}
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
