package discord

import (
	"fmt"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// HandlerRegistrar is the part of *discordgo.Session the loader needs.
type HandlerRegistrar interface {
	AddHandler(handler interface{}) func()
	AddHandlerOnce(handler interface{}) func()
}

// Listener is one lifecycle event handler. Handler must be a discordgo event
// handler func such as func(*discordgo.Session, *discordgo.GuildMemberAdd).
type Listener struct {
	Name    string
	Once    bool
	Handler interface{}
}

// EventHandler manages event loading and registration
type EventHandler struct {
	registrar HandlerRegistrar
	removers  []func()
	names     []string
	mu        sync.Mutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(registrar HandlerRegistrar) *EventHandler {
	return &EventHandler{registrar: registrar}
}

// LoadEvents registers every listener as recurring or one-shot.
func (eh *EventHandler) LoadEvents(listeners ...Listener) error {
	logger.System("Iniciando carga de eventos...", "EventHandler")

	for _, l := range listeners {
		if err := eh.RegisterEvent(l); err != nil {
			return err
		}
	}

	logger.System(fmt.Sprintf("Carga finalizada. %d eventos registrados.", len(listeners)), "EventHandler")
	return nil
}

// RegisterEvent adds one listener to the session
func (eh *EventHandler) RegisterEvent(l Listener) error {
	if l.Handler == nil {
		return fmt.Errorf("listener %q has no handler", l.Name)
	}

	var remove func()
	if l.Once {
		remove = eh.registrar.AddHandlerOnce(l.Handler)
	} else {
		remove = eh.registrar.AddHandler(l.Handler)
	}

	eh.mu.Lock()
	eh.removers = append(eh.removers, remove)
	eh.names = append(eh.names, l.Name)
	eh.mu.Unlock()

	logger.Debug(fmt.Sprintf("Evento '%s' registrado", l.Name), "EventHandler")
	return nil
}

// Names returns the registered listener names in order.
func (eh *EventHandler) Names() []string {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return append([]string(nil), eh.names...)
}

// RemoveAll unregisters every listener.
func (eh *EventHandler) RemoveAll() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	for _, remove := range eh.removers {
		if remove != nil {
			remove()
		}
	}
	eh.removers = nil
	eh.names = nil
}
