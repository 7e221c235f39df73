package dev

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createPanicsCommand creates the /dev panics subcommand
func createPanicsCommand(d Deps) *discord.Handler {
	return discord.NewCommand(
		"panics",
		"Muestra los panics recuperados desde el inicio (Solo desarrolladores)",
		"dev",
		func(ctx *discord.Context) error {
			if d.Panics == nil {
				return ctx.Reply("❌ El manejador de errores no está disponible.")
			}
			return ctx.Reply(fmt.Sprintf("🧯 Panics recuperados: %d", d.Panics()))
		},
	)
}
