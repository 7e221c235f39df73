package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createPingCommand creates the /utils ping subcommand
func createPingCommand(d Deps) *discord.Handler {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"utils",
		pingHandler(d),
	)
}

func pingHandler(d Deps) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", d.Bot.Latency().Milliseconds()))
	}
}
