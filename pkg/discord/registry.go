package discord

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// ErrDuplicateHandler is returned when an exact name is registered twice.
var ErrDuplicateHandler = errors.New("handler already registered")

// Registry holds registered handlers. Exact names live in a map; prefix
// handlers are kept in registration order and only consulted on a miss.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]*Handler
	prefixes []*Handler
	commands []*discordgo.ApplicationCommand
	dev      []*discordgo.ApplicationCommand
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		exact: make(map[string]*Handler),
	}
}

// Register adds a handler. Top-level commands are also queued for sync.
func (r *Registry) Register(h *Handler) error {
	if err := validate(h); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.add(h); err != nil {
		return err
	}
	if h.Kind == KindCommand {
		r.queue(h.IsDev, h.ToApplicationCommand())
	}
	return nil
}

// RegisterGroup registers each sub as "name.sub" and queues one grouped
// application command. Nothing is registered if any name collides.
func (r *Registry) RegisterGroup(name, description string, subs ...*Handler) error {
	group := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Type:        discordgo.ChatApplicationCommand,
	}

	scoped := make([]*Handler, 0, len(subs))
	seen := make(map[string]struct{}, len(subs))
	dev := false
	for _, sub := range subs {
		if err := validate(sub); err != nil {
			return err
		}
		cp := *sub
		cp.Matcher = Exact(name + "." + sub.Name)
		if _, dup := seen[cp.Matcher.Value]; dup {
			return fmt.Errorf("%s: %w", cp.Matcher.Value, ErrDuplicateHandler)
		}
		seen[cp.Matcher.Value] = struct{}{}
		scoped = append(scoped, &cp)
		group.Options = append(group.Options, sub.subcommandOption())
		dev = dev || sub.IsDev
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range scoped {
		if _, exists := r.exact[h.Matcher.Value]; exists {
			return fmt.Errorf("%s: %w", h.Matcher.Value, ErrDuplicateHandler)
		}
	}
	for _, h := range scoped {
		if err := r.add(h); err != nil {
			return err
		}
	}
	r.queue(dev, group)
	return nil
}

func validate(h *Handler) error {
	if h == nil || h.Run == nil {
		return errors.New("handler without run func")
	}
	if h.Matcher.Value == "" {
		return errors.New("handler without name")
	}
	return nil
}

// add stores a copy of h. Callers hold the write lock.
func (r *Registry) add(h *Handler) error {
	cp := *h
	switch cp.Matcher.Mode {
	case MatchExact:
		if _, exists := r.exact[cp.Matcher.Value]; exists {
			return fmt.Errorf("%s: %w", cp.Matcher.Value, ErrDuplicateHandler)
		}
		r.exact[cp.Matcher.Value] = &cp
	case MatchPrefix:
		r.prefixes = append(r.prefixes, &cp)
	default:
		return fmt.Errorf("unknown match mode %d", cp.Matcher.Mode)
	}
	return nil
}

func (r *Registry) queue(dev bool, cmd *discordgo.ApplicationCommand) {
	if dev {
		r.dev = append(r.dev, cmd)
		return
	}
	r.commands = append(r.commands, cmd)
}

// Resolve finds the handler for a raw interaction name.
func (r *Registry) Resolve(raw string) (*Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.exact[raw]; ok {
		return h, nil
	}
	for _, h := range r.prefixes {
		if strings.HasPrefix(raw, h.Matcher.Value) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", raw, boterrors.ErrNotFound)
}

// ApplicationCommands returns the global commands to sync.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*discordgo.ApplicationCommand(nil), r.commands...)
}

// DevCommands returns the commands synced only to the development guild.
func (r *Registry) DevCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*discordgo.ApplicationCommand(nil), r.dev...)
}

// Size returns the number of registered handlers
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact) + len(r.prefixes)
}

// All returns every registered handler, exact names first.
func (r *Registry) All() []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Handler, 0, len(r.exact)+len(r.prefixes))
	for _, h := range r.exact {
		result = append(result, h)
	}
	return append(result, r.prefixes...)
}
