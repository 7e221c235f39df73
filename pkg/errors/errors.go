// Package errors defines the failure taxonomy shared by the dispatcher, the
// moderation engine and the temporary role scheduler, plus the panic recovery
// helpers used by background goroutines.
//
// Import it as boterrors when the standard library package is also needed.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no registered handler matches an interaction.
	ErrNotFound = stderrors.New("unknown action")

	// ErrDuplicateRequest is returned when an identical moderation workflow is already in flight.
	ErrDuplicateRequest = stderrors.New("request already in progress")

	// ErrTransport is matched by every TransportError.
	ErrTransport = stderrors.New("platform call failed")
)

// CooldownError is returned when a user invokes a handler inside its cooldown window.
type CooldownError struct {
	Handler   string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Handler, e.Remaining.Round(time.Second))
}

// DeniedError wraps a role hierarchy violation. Reason is a user-facing string.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "moderation denied: " + e.Reason
}

// Denied builds a DeniedError.
func Denied(reason string) error {
	return &DeniedError{Reason: reason}
}

// TransportError reports a failed collaborator call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Transport wraps err as a TransportError. A nil err stays nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if stderrors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// UserMessage converts any error into the single ephemeral line shown to the invoker.
func UserMessage(err error) string {
	var (
		cooldown *CooldownError
		denied   *DeniedError
	)

	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrNotFound):
		return "❌ Acción desconocida."
	case stderrors.As(err, &cooldown):
		return fmt.Sprintf("⏳ Debes esperar **%s** antes de volver a usar esto.", formatRemaining(cooldown.Remaining))
	case stderrors.As(err, &denied):
		return "⛔ " + denied.Reason
	case stderrors.Is(err, ErrDuplicateRequest):
		return "⚠️ Ya hay una solicitud en curso para este usuario."
	case stderrors.Is(err, ErrTransport):
		return "❌ No se pudo completar la operación con Discord. Inténtalo más tarde."
	default:
		return "❌ Ocurrió un error inesperado al ejecutar esta acción."
	}
}

func formatRemaining(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return d.Round(time.Second).String()
}
