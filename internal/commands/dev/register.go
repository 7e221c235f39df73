// Package dev provides the /dev diagnostics group, synced only to the development guild.
package dev

import (
	"context"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// Timers reports the temporary role scheduler state.
type Timers interface {
	Armed() int
	Active(ctx context.Context) ([]*models.TemporaryRole, error)
}

// Deps are the collaborators of the dev commands. Nil fields report as unavailable.
type Deps struct {
	Timers Timers
	Panics func() int64
}

// Register registers all dev commands as /dev subcommands (only in dev guild)
func Register(reg *discord.Registry, d Deps) error {
	return reg.RegisterGroup(
		"dev",
		"Comandos de desarrollo",
		devOnly(createTimersCommand(d)),
		devOnly(createPanicsCommand(d)),
	)
}

func devOnly(h *discord.Handler) *discord.Handler {
	return h.AsDev().
		WithEphemeral(true).
		WithUserPermissions(discordgo.PermissionAdministrator)
}
