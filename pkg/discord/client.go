package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		case discordgo.LogDebug:
			logger.Debug(msg, "DiscordGo")
		default:
			logger.Info(msg, "DiscordGo")
		}
	}
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Guilds            config.GuildProvider
	CooldownCacheSize int
	DevGuildID        string
	SyncOnReady       bool
}

// ExtendedClient wraps discordgo.Session with the registry, dispatcher and loaders.
type ExtendedClient struct {
	Session    *discordgo.Session
	Registry   *Registry
	Dispatcher *Dispatcher
	Commands   *CommandHandler
	Events     *EventHandler
	StartTime  time.Time

	syncOnReady bool
	mu          sync.RWMutex
	isReady     bool
}

// NewClient creates a new ExtendedClient
func NewClient(token string, opts ClientOptions) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	registry := NewRegistry()
	c := &ExtendedClient{
		Session:     session,
		Registry:    registry,
		Dispatcher:  NewDispatcher(registry, NewCooldownStore(opts.CooldownCacheSize), opts.Guilds),
		Commands:    NewCommandHandler(session, registry, opts.DevGuildID),
		Events:      NewEventHandler(session),
		syncOnReady: opts.SyncOnReady,
	}
	return c, nil
}

// Start loads the listeners and opens the gateway connection.
func (c *ExtendedClient) Start(listeners ...Listener) error {
	logger.System(fmt.Sprintf("Handlers registrados: %d", c.Registry.Size()), "Client")

	if err := c.Events.LoadEvents(listeners...); err != nil {
		logger.Error("Failed to load events: "+err.Error(), "Client")
		return err
	}

	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")

		if c.syncOnReady {
			if err := c.Commands.RegisterCommands(r.User.ID); err != nil {
				logger.Error("Error sincronizando comandos: "+err.Error(), "Client")
			}
		}
	})

	c.Session.AddHandler(c.Dispatcher.Handle)

	c.StartTime = time.Now()
	return c.Session.Open()
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	c.Events.RemoveAll()
	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// Latency returns the last heartbeat round trip.
func (c *ExtendedClient) Latency() time.Duration {
	if c.Session == nil {
		return 0
	}
	return c.Session.HeartbeatLatency()
}

// Uptime returns the time since Start.
func (c *ExtendedClient) Uptime() time.Duration {
	if c.StartTime.IsZero() {
		return 0
	}
	return time.Since(c.StartTime)
}

// UserID returns the bot's own user ID once the state is populated.
func (c *ExtendedClient) UserID() string {
	if c.Session == nil || c.Session.State == nil || c.Session.State.User == nil {
		return ""
	}
	return c.Session.State.User.ID
}
