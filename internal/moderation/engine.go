package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// InfractionStore persists the infractions left by mutes, bans and kicks.
type InfractionStore interface {
	CreateInfraction(ctx context.Context, inf *models.Infraction) error
	ListInfractions(ctx context.Context, guildID, userID string) ([]*models.Infraction, error)
}

// Options configures an Engine.
type Options struct {
	// ServiceID is the bot's own user ID. It can be set later with SetServiceID.
	ServiceID string
	// SingleDeleteRPS paces deletes of messages too old for bulk deletion.
	SingleDeleteRPS float64
	Now             func() time.Time
}

// Engine runs moderation actions. Every punitive action passes the guard with
// freshly fetched member data and runs under the duplicate request guard.
type Engine struct {
	platform    platform.Client
	infractions InfractionStore
	audit       auditlog.Sink
	dup         *DuplicateGuard
	limiter     *rate.Limiter
	now         func() time.Time

	mu        sync.RWMutex
	serviceID string
}

// NewEngine creates an Engine. infractions and audit may be nil.
func NewEngine(client platform.Client, infractions InfractionStore, audit auditlog.Sink, opts Options) *Engine {
	rps := opts.SingleDeleteRPS
	if rps <= 0 {
		rps = 2
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if audit == nil {
		audit = auditlog.Nop{}
	}
	return &Engine{
		platform:    client,
		infractions: infractions,
		audit:       audit,
		dup:         NewDuplicateGuard(),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		now:         now,
		serviceID:   opts.ServiceID,
	}
}

// SetServiceID records the bot's user ID once the gateway reports it.
func (e *Engine) SetServiceID(id string) {
	e.mu.Lock()
	e.serviceID = id
	e.mu.Unlock()
}

func (e *Engine) service() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.serviceID
}

// Duplicates exposes the in-flight request set.
func (e *Engine) Duplicates() *DuplicateGuard {
	return e.dup
}

// Infractions returns the infractions stored for a user.
func (e *Engine) Infractions(ctx context.Context, guildID, userID string) ([]*models.Infraction, error) {
	if e.infractions == nil {
		return nil, nil
	}
	return e.infractions.ListInfractions(ctx, guildID, userID)
}

// TargetKey scopes a duplicate guard entry to one member of one guild.
func TargetKey(guildID, userID string) string {
	return guildID + "/" + userID
}

func (e *Engine) newInfraction(kind models.InfractionType, guildID, moderatorID, userID, reason string) *models.Infraction {
	return &models.Infraction{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Type:        kind,
		Reason:      reason,
		CreatedAt:   e.now(),
	}
}
