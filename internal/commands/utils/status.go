package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand(d Deps) *discord.Handler {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		statusHandler(d),
	)
}

func statusHandler(d Deps) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		dbStatus := "🔴 Desconectada"
		if d.Storage != nil {
			if ping, err := d.Storage.Ping(ctx.Context()); err == nil {
				dbStatus = fmt.Sprintf("🟢 Conectada (%dms)", ping.Milliseconds())
			}
		}

		botStatus := "🔴 Offline"
		if d.Bot.IsReady() {
			botStatus = "🟢 Online"
		}

		return ctx.Reply(fmt.Sprintf(
			"📊 **Estado del Bot**\n"+
				"• Bot: %s\n"+
				"• Base de datos: %s\n"+
				"• Servidores: %d",
			botStatus,
			dbStatus,
			d.Bot.GuildCount(),
		))
	}
}
