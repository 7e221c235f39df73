// Package temprole owns the lifecycle of temporary role grants: activation,
// timer driven expiry, manual revocation and recovery after downtime.
package temprole

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a grant.
type State int

const (
	StatePending State = iota
	StateActive
	StateExpired
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateExpired || s == StateRevoked
}

// ErrInvalidTransition is returned for moves the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid temporary role transition")

var allowed = map[State][]State{
	StatePending: {StateActive},
	StateActive:  {StateExpired, StateRevoked},
}

// Transition validates a move and counts it.
func Transition(from, to State) error {
	for _, next := range allowed[from] {
		if next == to {
			transitions.WithLabelValues(from.String(), to.String()).Inc()
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}
