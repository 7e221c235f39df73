package moderation

import (
	"fmt"
	"sync"

	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
)

// RequestType names a moderation workflow for duplicate detection.
type RequestType string

const (
	RequestBan     RequestType = "ban"
	RequestKick    RequestType = "kick"
	RequestMute    RequestType = "mute"
	RequestPurge   RequestType = "purge"
	RequestRevoke  RequestType = "revoke"
	RequestApprove RequestType = "approve"
)

type requestKey struct {
	kind   RequestType
	target string
}

// DuplicateGuard tracks in-flight workflows keyed by (type, target).
type DuplicateGuard struct {
	mu       sync.Mutex
	inflight map[requestKey]struct{}
}

// NewDuplicateGuard returns an empty guard.
func NewDuplicateGuard() *DuplicateGuard {
	return &DuplicateGuard{inflight: make(map[requestKey]struct{})}
}

// Acquire marks the workflow as in flight. The returned release is safe to call more than once.
func (g *DuplicateGuard) Acquire(kind RequestType, targetID string) (func(), error) {
	key := requestKey{kind: kind, target: targetID}

	g.mu.Lock()
	if _, busy := g.inflight[key]; busy {
		g.mu.Unlock()
		return nil, fmt.Errorf("%s %s: %w", kind, targetID, boterrors.ErrDuplicateRequest)
	}
	g.inflight[key] = struct{}{}
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

// Run executes fn while holding the (kind, target) entry. The entry is
// released on every exit path, panics included.
func (g *DuplicateGuard) Run(kind RequestType, targetID string, fn func() error) error {
	release, err := g.Acquire(kind, targetID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// InFlight reports whether the workflow is currently running.
func (g *DuplicateGuard) InFlight(kind RequestType, targetID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[requestKey{kind: kind, target: targetID}]
	return busy
}
