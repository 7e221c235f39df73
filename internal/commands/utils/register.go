// Package utils provides the /utils command group and /config.
package utils

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
)

// Bot is the client state reported by ping, status and stats.
type Bot interface {
	IsReady() bool
	GuildCount() int
	Latency() time.Duration
	Uptime() time.Duration
}

// Storage is the persistence backend reported by status.
type Storage interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Deps are the collaborators of the utility commands. Storage may be nil.
type Deps struct {
	Bot     Bot
	Storage Storage
	Stats   func() sysinfo.Snapshot
}

// Register adds /utils and /config. help lists what reg holds when it runs.
func Register(reg *discord.Registry, d Deps) error {
	if d.Stats == nil {
		d.Stats = sysinfo.Collect
	}

	err := reg.RegisterGroup(
		"utils",
		"Comandos de utilidad",
		createPingCommand(d),
		createStatusCommand(d),
		createStatsCommand(d),
		createHelpCommand(reg),
	)
	if err != nil {
		return err
	}
	return reg.Register(createConfigCommand())
}
