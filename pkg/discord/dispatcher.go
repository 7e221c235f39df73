package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EphemeralOption is the boolean command option that overrides the visibility check.
const EphemeralOption = "ephemeral"

var errNoPermission = boterrors.Denied("No tienes permisos para usar esta acción.")

// Dispatcher routes interactions to registered handlers.
type Dispatcher struct {
	registry  *Registry
	cooldowns *CooldownStore
	guilds    config.GuildProvider
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher. guilds may be nil.
func NewDispatcher(registry *Registry, cooldowns *CooldownStore, guilds config.GuildProvider) *Dispatcher {
	if cooldowns == nil {
		cooldowns = NewCooldownStore(0)
	}
	if guilds == nil {
		guilds = config.NewGuildStore()
	}
	return &Dispatcher{
		registry:  registry,
		cooldowns: cooldowns,
		guilds:    guilds,
		timeout:   5 * time.Minute,
	}
}

// Handle is the discordgo InteractionCreate handler.
func (d *Dispatcher) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_ = d.Dispatch(s, i)
}

// Dispatch runs one interaction to completion. Handler failures are answered
// to the invoker and returned for inspection; they never panic out.
func (d *Dispatcher) Dispatch(r Responder, i *discordgo.InteractionCreate) error {
	name, ok := InteractionName(i.Interaction)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	h, err := d.registry.Resolve(name)
	if err != nil {
		logger.Warn("Acción no encontrada: "+name, "Dispatcher")
		dispatchCount.WithLabelValues(kindOf(i.Interaction).String(), "unknown", "not_found").Inc()
		if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
			return err
		}
		c := NewContext(ctx, r, i, &Handler{Name: name})
		_ = c.fail(boterrors.UserMessage(err))
		return err
	}

	c := NewContext(ctx, r, i, h)
	c.Guild = d.guilds.Guild(i.GuildID)

	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		if h.AutoComplete == nil {
			return nil
		}
		return d.invoke(c, HandlerFunc(h.AutoComplete))
	}

	start := time.Now()
	err = d.prepare(c, name)
	if err == nil {
		err = d.invoke(c, h.Run)
	}
	dispatchDuration.WithLabelValues(h.Kind.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		dispatchCount.WithLabelValues(h.Kind.String(), h.Matcher.Value, outcome(err)).Inc()
		logger.Error(fmt.Sprintf("Error ejecutando %s: %v", name, err), "Dispatcher")
		if replyErr := c.fail(boterrors.UserMessage(err)); replyErr != nil {
			logger.Warn(fmt.Sprintf("No se pudo notificar el error de %s: %v", name, replyErr), "Dispatcher")
		}
		return err
	}

	dispatchCount.WithLabelValues(h.Kind.String(), h.Matcher.Value, "ok").Inc()
	return nil
}

// prepare applies permissions, cooldown, visibility and deferral in that order.
func (d *Dispatcher) prepare(c *Context, name string) error {
	h := c.Handler
	i := c.Interaction

	if h.UserPermissions != 0 && i.Member != nil && i.Member.Permissions&h.UserPermissions != h.UserPermissions &&
		i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return errNoPermission
	}

	if h.Cooldown > 0 {
		if remaining, ok := d.cooldowns.Take(c.User().ID, h.Matcher.Value, h.Cooldown); !ok {
			return &boterrors.CooldownError{Handler: name, Remaining: remaining}
		}
	}

	c.Ephemeral = ResolveEphemeral(h, i.Interaction, c.Guild)

	switch h.Deferral {
	case DeferDefault:
		return boterrors.Transport("defer", c.deferResponse(false))
	case DeferDefer:
		return boterrors.Transport("defer", c.deferResponse(updatesMessage(i.Interaction)))
	}
	return nil
}

// invoke runs fn and converts a panic into an error.
func (d *Dispatcher) invoke(c *Context, fn HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			boterrors.Get().HandlePanic("dispatcher", r)
			err = fmt.Errorf("handler %s panicked: %v", c.Handler.Matcher.Value, r)
		}
	}()
	return fn(c)
}

// ResolveEphemeral decides the reply visibility for one invocation.
func ResolveEphemeral(h *Handler, i *discordgo.Interaction, guild *config.GuildConfig) bool {
	if !h.VisibilityCheck {
		return h.Ephemeral
	}
	if i.Type == discordgo.InteractionApplicationCommand {
		opt := findOption(i.ApplicationCommandData().Options, EphemeralOption)
		if opt != nil && opt.Type == discordgo.ApplicationCommandOptionBoolean {
			return opt.BoolValue()
		}
	}
	return !guild.IsPublicChannel(i.ChannelID)
}

// updatesMessage reports whether a deferred acknowledgement should edit the
// originating message instead of opening a new reply.
func updatesMessage(i *discordgo.Interaction) bool {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		return true
	case discordgo.InteractionModalSubmit:
		return i.Message != nil
	default:
		return false
	}
}

// InteractionName returns the raw name the registry resolves: "name",
// "name.sub" or "name.group.sub" for commands and the custom ID otherwise.
func InteractionName(i *discordgo.Interaction) (string, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand, discordgo.InteractionApplicationCommandAutocomplete:
		data := i.ApplicationCommandData()
		name := data.Name
		if len(data.Options) > 0 {
			opt := data.Options[0]
			switch opt.Type {
			case discordgo.ApplicationCommandOptionSubCommandGroup:
				if len(opt.Options) > 0 {
					name = data.Name + "." + opt.Name + "." + opt.Options[0].Name
				}
			case discordgo.ApplicationCommandOptionSubCommand:
				name = data.Name + "." + opt.Name
			}
		}
		return name, true
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID, true
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID, true
	default:
		return "", false
	}
}

func kindOf(i *discordgo.Interaction) Kind {
	if i.Type == discordgo.InteractionMessageComponent || i.Type == discordgo.InteractionModalSubmit {
		return KindComponent
	}
	return KindCommand
}

func outcome(err error) string {
	var (
		cooldown *boterrors.CooldownError
		denied   *boterrors.DeniedError
	)
	switch {
	case errors.As(err, &cooldown):
		return "cooldown"
	case errors.As(err, &denied):
		return "denied"
	case errors.Is(err, boterrors.ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, boterrors.ErrTransport):
		return "transport"
	default:
		return "error"
	}
}
