package temprole

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// RemoveButtonPrefix prefixes the custom ID of the manual removal button
// posted with every grant log. The request message ID follows it.
const RemoveButtonPrefix = "temprole-remove:"

var (
	ErrNotStarted    = errors.New("temporary role scheduler not started")
	ErrAlreadyActive = errors.New("temporary role already active for this request")
	ErrGrantNotFound = errors.New("temporary role not found")
	ErrNoMembers     = errors.New("none of the users is in the guild")
	ErrStopped       = errors.New("temporary role scheduler stopped")
)

// Store persists temporary role records keyed by request message ID.
type Store interface {
	CreateTempRole(ctx context.Context, r *models.TemporaryRole) error
	ActiveTempRoles(ctx context.Context) ([]*models.TemporaryRole, error)
	// GetTempRole returns nil and no error when the record does not exist.
	GetTempRole(ctx context.Context, requestMessageID string) (*models.TemporaryRole, error)
	DeleteTempRole(ctx context.Context, requestMessageID string) error
}

// RoleManager applies role changes to guild members.
type RoleManager interface {
	GrantRole(ctx context.Context, guildID, roleID string, userIDs []string) (moderation.RoleChangeResult, error)
	RevokeRole(ctx context.Context, guildID, roleID string, userIDs []string) (moderation.RoleChangeResult, error)
}

// Timer is the handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// Options configures a Scheduler.
type Options struct {
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
	// ExpireTimeout bounds the platform calls of one timer-driven expiry.
	ExpireTimeout time.Duration
	// RetryBackoff is the first wait of StartWithRetry, doubled after every
	// failed attempt up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// GrantRequest is an approved role request.
type GrantRequest struct {
	RequestMessageID string
	GuildID          string
	RoleID           string
	UserIDs          []string
	Duration         time.Duration
	Permanent        bool
	ApprovedBy       string
}

// Scheduler arms one timer per active, non-permanent record. A record is
// claimed while it is being expired or revoked so both paths never process
// it twice.
type Scheduler struct {
	store     Store
	roles     RoleManager
	audit     auditlog.Sink
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) Timer
	timeout   time.Duration
	backoff   time.Duration
	maxWait   time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
	timers  map[string]Timer
	claimed map[string]struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler. audit may be nil.
func NewScheduler(store Store, roles RoleManager, audit auditlog.Sink, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.ExpireTimeout <= 0 {
		opts.ExpireTimeout = 30 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	if opts.MaxRetryBackoff < opts.RetryBackoff {
		opts.MaxRetryBackoff = max(5*time.Minute, opts.RetryBackoff)
	}
	if audit == nil {
		audit = auditlog.Nop{}
	}
	return &Scheduler{
		store:     store,
		roles:     roles,
		audit:     audit,
		now:       opts.Now,
		afterFunc: opts.AfterFunc,
		timeout:   opts.ExpireTimeout,
		backoff:   opts.RetryBackoff,
		maxWait:   opts.MaxRetryBackoff,
		done:      make(chan struct{}),
		timers:    make(map[string]Timer),
		claimed:   make(map[string]struct{}),
	}
}

// Start expires every record that came due while the bot was down, then arms
// timers for the rest. Activate is rejected until Start returns. Calling Start
// again after a successful run does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	started, stopped := s.started, s.stopped
	s.mu.Unlock()
	switch {
	case stopped:
		return ErrStopped
	case started:
		return nil
	}

	records, err := s.store.ActiveTempRoles(ctx)
	if err != nil {
		return fmt.Errorf("load temporary roles: %w", err)
	}

	now := s.now()
	due, future := lo.FilterReject(records, func(r *models.TemporaryRole, _ int) bool { return r.IsDue(now) })

	for _, r := range due {
		if err := s.expire(ctx, r.RequestMessageID); err != nil {
			logger.Error(fmt.Sprintf("No se pudo expirar el rol temporal %s: %v", r.RequestMessageID, err), "TempRoles")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	s.started = true
	armed := 0
	for _, r := range future {
		if r.Permanent {
			continue
		}
		s.armLocked(r)
		armed++
	}

	logger.System(fmt.Sprintf("Roles temporales: %d expirados al iniciar, %d programados", len(due), armed), "TempRoles")
	return nil
}

// StartWithRetry runs Start until it succeeds, waiting with exponential backoff
// between failed attempts. Each attempt is bounded by attemptTimeout. It gives
// up when ctx is done or the scheduler is stopped.
func (s *Scheduler) StartWithRetry(ctx context.Context, attemptTimeout time.Duration) error {
	wait := s.backoff
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := s.Start(attemptCtx)
		cancel()
		if err == nil || errors.Is(err, ErrStopped) {
			return err
		}

		startFailures.Inc()
		logger.Warn(fmt.Sprintf("⚠️ Intento %d de recuperar roles temporales falló: %v. Reintentando en %s", attempt, err, wait), "TempRoles")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-s.done:
			t.Stop()
			return ErrStopped
		case <-t.C:
		}
		wait = min(wait*2, s.maxWait)
	}
}

// Activate grants the role, persists the record and arms its timer unless permanent.
func (s *Scheduler) Activate(ctx context.Context, req GrantRequest) (*models.TemporaryRole, error) {
	s.mu.Lock()
	started := s.started && !s.stopped
	s.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}
	if !req.Permanent && req.Duration <= 0 {
		return nil, fmt.Errorf("temporary role needs a positive duration")
	}

	if !s.claim(req.RequestMessageID) {
		return nil, boterrors.ErrDuplicateRequest
	}
	defer s.unclaim(req.RequestMessageID)

	existing, err := s.store.GetTempRole(ctx, req.RequestMessageID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyActive
	}

	res, err := s.roles.GrantRole(ctx, req.GuildID, req.RoleID, req.UserIDs)
	if err != nil {
		return nil, err
	}
	if len(res.Changed) == 0 {
		return nil, ErrNoMembers
	}

	now := s.now()
	rec := &models.TemporaryRole{
		RequestMessageID: req.RequestMessageID,
		RoleID:           req.RoleID,
		GuildID:          req.GuildID,
		UserIDs:          res.Changed,
		ExpiresAt:        now.Add(req.Duration),
		Permanent:        req.Permanent,
		ApprovedBy:       req.ApprovedBy,
		CreatedAt:        now,
	}
	if req.Permanent {
		rec.ExpiresAt = time.Time{}
	}

	if err := s.store.CreateTempRole(ctx, rec); err != nil {
		if _, rerr := s.roles.RevokeRole(ctx, rec.GuildID, rec.RoleID, res.Changed); rerr != nil {
			logger.Error(fmt.Sprintf("Rol %s otorgado sin registro a %s: %v", rec.RoleID, strings.Join(res.Changed, ", "), rerr), "TempRoles")
		}
		return nil, fmt.Errorf("persist temporary role: %w", err)
	}
	_ = Transition(StatePending, StateActive)

	if !rec.Permanent {
		s.mu.Lock()
		s.armLocked(rec)
		s.mu.Unlock()
	}

	auditlog.Send(ctx, s.audit, rec.GuildID, grantedEvent(rec, res.Skipped))
	return rec, nil
}

// Revoke removes a grant before its expiry. The pending timer is cancelled
// first. Permanent grants can only end this way.
func (s *Scheduler) Revoke(ctx context.Context, requestMessageID, actorID string) (*models.TemporaryRole, error) {
	s.disarm(requestMessageID)

	if !s.claim(requestMessageID) {
		return nil, boterrors.ErrDuplicateRequest
	}
	defer s.unclaim(requestMessageID)

	rec, err := s.store.GetTempRole(ctx, requestMessageID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrGrantNotFound
	}

	if _, err := s.roles.RevokeRole(ctx, rec.GuildID, rec.RoleID, rec.UserIDs); err != nil {
		s.rearm(rec)
		return nil, err
	}
	if err := s.store.DeleteTempRole(ctx, requestMessageID); err != nil {
		s.rearm(rec)
		return nil, fmt.Errorf("delete temporary role: %w", err)
	}
	_ = Transition(StateActive, StateRevoked)

	auditlog.Send(ctx, s.audit, rec.GuildID, auditlog.Event{
		Name:        auditlog.EventRoleRevoked,
		Title:       "🗑️ Rol temporal retirado",
		Description: fmt.Sprintf("<@%s> retiró <@&%s> de %s.", actorID, rec.RoleID, mentions(rec.UserIDs)),
		Color:       0xe67e22,
		ActorID:     actorID,
	})
	return rec, nil
}

// Active lists the persisted grants.
func (s *Scheduler) Active(ctx context.Context) ([]*models.TemporaryRole, error) {
	return s.store.ActiveTempRoles(ctx)
}

// Armed returns how many expiry timers are pending.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all timers and waits for running expirations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		close(s.done)
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	armedTimers.Set(0)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) armLocked(rec *models.TemporaryRole) {
	id := rec.RequestMessageID
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = s.afterFunc(rec.Remaining(s.now()), func() { s.fire(id) })
	armedTimers.Set(float64(len(s.timers)))
}

func (s *Scheduler) rearm(rec *models.TemporaryRole) {
	if rec.Permanent {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.armLocked(rec)
	}
}

func (s *Scheduler) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
		armedTimers.Set(float64(len(s.timers)))
	}
}

// fire runs on the timer goroutine.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	armedTimers.Set(float64(len(s.timers)))
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer boterrors.RecoverAs("temprole")()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.expire(ctx, id); err != nil {
		expiryFailures.Inc()
		logger.Error(fmt.Sprintf("No se pudo expirar el rol temporal %s: %v", id, err), "TempRoles")
	}
}

// expire re-reads the record and, if it still exists, revokes and deletes it.
func (s *Scheduler) expire(ctx context.Context, id string) error {
	if !s.claim(id) {
		return nil
	}
	defer s.unclaim(id)

	rec, err := s.store.GetTempRole(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil || rec.Permanent {
		return nil
	}

	res, err := s.roles.RevokeRole(ctx, rec.GuildID, rec.RoleID, rec.UserIDs)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTempRole(ctx, id); err != nil {
		return fmt.Errorf("delete temporary role: %w", err)
	}
	_ = Transition(StateActive, StateExpired)

	logger.Info(fmt.Sprintf("⌛ Rol temporal %s expirado (%d usuarios)", id, len(res.Changed)), "TempRoles")
	auditlog.Send(ctx, s.audit, rec.GuildID, auditlog.Event{
		Name:        auditlog.EventRoleExpired,
		Title:       "⌛ Rol temporal expirado",
		Description: fmt.Sprintf("<@&%s> fue retirado de %s.", rec.RoleID, mentions(res.Changed)),
		Color:       0x95a5a6,
	})
	return nil
}

func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.claimed[id]; busy {
		return false
	}
	s.claimed[id] = struct{}{}
	return true
}

func (s *Scheduler) unclaim(id string) {
	s.mu.Lock()
	delete(s.claimed, id)
	s.mu.Unlock()
}

func grantedEvent(rec *models.TemporaryRole, skipped []string) auditlog.Event {
	until := "Permanente"
	if !rec.Permanent {
		until = fmt.Sprintf("<t:%d:R>", rec.ExpiresAt.Unix())
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Usuarios", Value: mentions(rec.UserIDs)},
		{Name: "Expira", Value: until, Inline: true},
	}
	if len(skipped) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Omitidos", Value: mentions(skipped)})
	}

	return auditlog.Event{
		Name:        auditlog.EventRoleGranted,
		Title:       "✅ Rol temporal otorgado",
		Description: fmt.Sprintf("<@%s> aprobó <@&%s>.", rec.ApprovedBy, rec.RoleID),
		Color:       0x2ecc71,
		ActorID:     rec.ApprovedBy,
		Fields:      fields,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Quitar rol",
					Style:    discordgo.DangerButton,
					CustomID: RemoveButtonPrefix + rec.RequestMessageID,
				},
			}},
		},
	}
}

func mentions(ids []string) string {
	if len(ids) == 0 {
		return "nadie"
	}
	return strings.Join(lo.Map(ids, func(id string, _ int) string { return "<@" + id + ">" }), ", ")
}
