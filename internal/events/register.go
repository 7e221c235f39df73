// Package events provides the lifecycle listeners of the bot.
// Listeners are organized by category (ready, guild, member, voice, thread, shard).
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// DefaultStatus is the presence shown once the bot is ready.
const DefaultStatus = "🛡️ Moderando con /mod"

// auditTimeout bounds one audit log delivery from a listener.
const auditTimeout = 10 * time.Second

// Recoverer resumes work persisted across restarts, retrying until it
// succeeds or ctx is done. *temprole.Scheduler implements it.
type Recoverer interface {
	StartWithRetry(ctx context.Context, attemptTimeout time.Duration) error
}

// Identity receives the bot's own user ID. *moderation.Engine implements it.
type Identity interface {
	SetServiceID(id string)
}

// Deps are the collaborators of the listeners. Nil fields are skipped.
type Deps struct {
	Audit     auditlog.Sink
	Scheduler Recoverer
	Identity  Identity
	Status    string
	// RecoverTimeout bounds each attempt of the startup recovery run on ready.
	RecoverTimeout time.Duration
}

type listeners struct {
	Deps
}

// Listeners returns every lifecycle listener, ready first.
func Listeners(d Deps) []discord.Listener {
	if d.Audit == nil {
		d.Audit = auditlog.Nop{}
	}
	if d.Status == "" {
		d.Status = DefaultStatus
	}
	if d.RecoverTimeout <= 0 {
		d.RecoverTimeout = 2 * time.Minute
	}
	l := &listeners{Deps: d}

	return []discord.Listener{
		// Ready event (bot startup)
		{Name: "ready", Once: true, Handler: l.onReady},

		// Guild events (server join/leave)
		{Name: "guildCreate", Handler: l.onGuildCreate},
		{Name: "guildDelete", Handler: l.onGuildDelete},

		// Member events (join/leave)
		{Name: "guildMemberAdd", Handler: l.onGuildMemberAdd},
		{Name: "guildMemberRemove", Handler: l.onGuildMemberRemove},

		// Voice events (join/leave/move)
		{Name: "voiceStateUpdate", Handler: l.onVoiceStateUpdate},

		// Thread events
		{Name: "threadUpdate", Handler: l.onThreadUpdate},

		// Gateway connection
		{Name: "disconnect", Handler: l.onDisconnect},
		{Name: "resumed", Handler: l.onResumed},
	}
}

func (l *listeners) audit(guildID string, ev auditlog.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	auditlog.Send(ctx, l.Audit, guildID, ev)
}
