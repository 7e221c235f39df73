// Package discord provides the handler registry, the interaction dispatcher and
// the bot client built on discordgo.
package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Kind separates application commands from message components and modals.
type Kind int

const (
	KindCommand Kind = iota
	KindComponent
)

func (k Kind) String() string {
	if k == KindComponent {
		return "component"
	}
	return "command"
}

// MatchMode selects how a Matcher compares interaction names.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchPrefix
)

// Matcher decides which raw interaction names a handler answers.
type Matcher struct {
	Mode  MatchMode
	Value string
}

// Exact matches name and nothing else.
func Exact(name string) Matcher { return Matcher{Mode: MatchExact, Value: name} }

// Prefix matches every name starting with p.
func Prefix(p string) Matcher { return Matcher{Mode: MatchPrefix, Value: p} }

// Deferral is the acknowledgement policy applied before a handler runs.
type Deferral int

const (
	// DeferNone leaves the whole response to the handler.
	DeferNone Deferral = iota
	// DeferDefault acknowledges immediately with the resolved visibility.
	DeferDefault
	// DeferDefer sends an empty acknowledgement; the handler finalizes with an edit.
	DeferDefer
)

// HandlerFunc is the function type for handler execution
type HandlerFunc func(ctx *Context) error

// AutoCompleteFunc is the function type for autocomplete handling
type AutoCompleteFunc func(ctx *Context) error

// Handler describes one command or component. The registry keeps its own copy,
// so changes after registration have no effect.
type Handler struct {
	Matcher         Matcher
	Kind            Kind
	Deferral        Deferral
	VisibilityCheck bool
	Ephemeral       bool
	Cooldown        time.Duration

	Name            string
	Description     string
	Category        string
	Type            discordgo.ApplicationCommandType
	Options         []*discordgo.ApplicationCommandOption
	UserPermissions int64
	IsDev           bool

	Run          HandlerFunc
	AutoComplete AutoCompleteFunc
}

// NewCommand creates a chat input command. By default the reply visibility is
// resolved per invocation and the response is deferred.
func NewCommand(name, description, category string, run HandlerFunc) *Handler {
	return &Handler{
		Matcher:         Exact(name),
		Kind:            KindCommand,
		Deferral:        DeferDefault,
		VisibilityCheck: true,
		Name:            name,
		Description:     description,
		Category:        category,
		Type:            discordgo.ChatApplicationCommand,
		Run:             run,
	}
}

// NewMessageCommand creates a message context menu entry.
func NewMessageCommand(name, category string, run HandlerFunc) *Handler {
	h := NewCommand(name, "", category, run)
	h.Type = discordgo.MessageApplicationCommand
	return h
}

// NewComponent creates a handler for buttons and modals whose custom ID starts with prefix.
func NewComponent(prefix string, run HandlerFunc) *Handler {
	return &Handler{
		Matcher:   Prefix(prefix),
		Kind:      KindComponent,
		Deferral:  DeferNone,
		Ephemeral: true,
		Name:      prefix,
		Run:       run,
	}
}

// NewExactComponent creates a component handler for one literal custom ID.
func NewExactComponent(customID string, run HandlerFunc) *Handler {
	h := NewComponent(customID, run)
	h.Matcher = Exact(customID)
	return h
}

// WithOptions sets the command options
func (h *Handler) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Handler {
	h.Options = opts
	return h
}

// WithUserPermissions sets required user permissions
func (h *Handler) WithUserPermissions(perms int64) *Handler {
	h.UserPermissions = perms
	return h
}

// WithDeferral sets the acknowledgement policy.
func (h *Handler) WithDeferral(d Deferral) *Handler {
	h.Deferral = d
	return h
}

// WithCooldown enables the per-user cooldown window.
func (h *Handler) WithCooldown(d time.Duration) *Handler {
	h.Cooldown = d
	return h
}

// WithEphemeral skips the visibility check and fixes the reply visibility.
func (h *Handler) WithEphemeral(ephemeral bool) *Handler {
	h.VisibilityCheck = false
	h.Ephemeral = ephemeral
	return h
}

// WithVisibilityCheck resolves visibility from the invocation instead of the fixed value.
func (h *Handler) WithVisibilityCheck() *Handler {
	h.VisibilityCheck = true
	return h
}

// AsDev marks the command as a dev-only command
func (h *Handler) AsDev() *Handler {
	h.IsDev = true
	return h
}

// WithAutoComplete sets the autocomplete handler
func (h *Handler) WithAutoComplete(fn AutoCompleteFunc) *Handler {
	h.AutoComplete = fn
	return h
}

// ToApplicationCommand converts the command to a Discord application command
func (h *Handler) ToApplicationCommand() *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:    h.Name,
		Type:    h.Type,
		Options: h.Options,
	}
	if h.Type != discordgo.MessageApplicationCommand && h.Type != discordgo.UserApplicationCommand {
		cmd.Description = h.Description
	}
	if h.UserPermissions != 0 {
		perms := h.UserPermissions
		cmd.DefaultMemberPermissions = &perms
	}
	return cmd
}

func (h *Handler) subcommandOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        h.Name,
		Description: h.Description,
		Options:     h.Options,
	}
}
