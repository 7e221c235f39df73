// Package commands wires every command and component into a registry.
// Handlers are organized in subdirectories by category (mod, roles, utils, dev).
package commands

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/commands/dev"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/roles"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// Deps are the collaborators shared by the command packages.
type Deps struct {
	Moderator mod.Moderator
	Grants    roles.Grants
	Audit     auditlog.Sink
	Utils     utils.Deps
	Dev       dev.Deps
}

// RegisterAll registers all commands with the registry
func RegisterAll(reg *discord.Registry, d Deps) error {
	// Moderation commands (/mod ban, /mod kick, /mod mute, /mod purge, ...)
	if err := mod.Register(reg, d.Moderator); err != nil {
		return fmt.Errorf("register mod commands: %w", err)
	}

	// Temporary roles (/temprole request, list, revoke and the request buttons)
	if err := roles.Register(reg, d.Grants, d.Audit); err != nil {
		return fmt.Errorf("register temprole commands: %w", err)
	}

	// Utility commands (/utils ..., /config)
	if err := utils.Register(reg, d.Utils); err != nil {
		return fmt.Errorf("register utils commands: %w", err)
	}

	// Diagnostics for the development guild (/dev timers, /dev panics)
	if err := dev.Register(reg, d.Dev); err != nil {
		return fmt.Errorf("register dev commands: %w", err)
	}
	return nil
}
