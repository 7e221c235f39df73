package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// MaxMute is the longest communication timeout Discord accepts.
const MaxMute = 28 * 24 * time.Hour

// QuickMuteDuration is one of the preset durations offered by the quick mute buttons.
type QuickMuteDuration string

const (
	QuickMuteShort QuickMuteDuration = "short"
	QuickMuteLong  QuickMuteDuration = "long"
)

// Duration resolves the preset.
func (d QuickMuteDuration) Duration() (time.Duration, bool) {
	switch d {
	case QuickMuteShort:
		return 30 * time.Minute, true
	case QuickMuteLong:
		return time.Hour, true
	default:
		return 0, false
	}
}

// MuteRequest describes a timed mute.
type MuteRequest struct {
	GuildID    string
	ExecutorID string
	TargetID   string
	Duration   time.Duration
	Reason     string
}

// BanRequest describes a ban. DeleteDays removes that many days of messages.
type BanRequest struct {
	GuildID    string
	ExecutorID string
	TargetID   string
	Reason     string
	DeleteDays int
}

// KickRequest describes a kick.
type KickRequest struct {
	GuildID    string
	ExecutorID string
	TargetID   string
	Reason     string
}

// QuickMuteParams are the inputs of a quick mute button.
type QuickMuteParams struct {
	GuildID    string
	ExecutorID string
	TargetID   string
	Duration   QuickMuteDuration
	Reason     string
}

// QuickMuteResult always carries a reply. Infraction is nil when the mute failed.
type QuickMuteResult struct {
	Response   string
	Infraction *models.Infraction
	Err        error
}

// HandleQuickMute mutes the target for a preset duration and never returns
// without a user-facing response.
func (e *Engine) HandleQuickMute(ctx context.Context, p QuickMuteParams) QuickMuteResult {
	d, ok := p.Duration.Duration()
	if !ok {
		return QuickMuteResult{
			Response: "❌ Duración de silencio no válida.",
			Err:      fmt.Errorf("unknown quick mute duration %q", p.Duration),
		}
	}

	reason := p.Reason
	if reason == "" {
		reason = "Silencio rápido"
	}

	inf, err := e.Mute(ctx, MuteRequest{
		GuildID:    p.GuildID,
		ExecutorID: p.ExecutorID,
		TargetID:   p.TargetID,
		Duration:   d,
		Reason:     reason,
	})
	if err != nil {
		return QuickMuteResult{Response: muteFailure(err), Err: err}
	}

	return QuickMuteResult{
		Response:   fmt.Sprintf("🔇 <@%s> fue silenciado hasta <t:%d:R>.", p.TargetID, inf.ExpiresAt.Unix()),
		Infraction: inf,
	}
}

func muteFailure(err error) string {
	var denied *boterrors.DeniedError
	switch {
	case errors.As(err, &denied), errors.Is(err, boterrors.ErrDuplicateRequest):
		return boterrors.UserMessage(err)
	default:
		return "❌ No pude silenciar al usuario. Revisa mis permisos y la jerarquía de roles."
	}
}

// Mute applies a communication timeout and records the infraction.
func (e *Engine) Mute(ctx context.Context, req MuteRequest) (*models.Infraction, error) {
	if req.Duration <= 0 || req.Duration > MaxMute {
		return nil, fmt.Errorf("mute duration %s out of range", req.Duration)
	}

	until := e.now().Add(req.Duration)
	inf := e.newInfraction(models.InfractionMute, req.GuildID, req.ExecutorID, req.TargetID, req.Reason)
	inf.ExpiresAt = &until

	err := e.punish(ctx, RequestMute, req.GuildID, req.ExecutorID, req.TargetID, inf, func() error {
		return e.platform.MuteUser(ctx, req.GuildID, req.TargetID, until)
	}, auditlog.Event{
		Name:        auditlog.EventMute,
		Title:       "🔇 Usuario silenciado",
		Description: fmt.Sprintf("<@%s> silenció a <@%s> hasta <t:%d:f>.", req.ExecutorID, req.TargetID, until.Unix()),
		Color:       0xf1c40f,
		Fields:      reasonField(req.Reason),
	})
	if err != nil {
		return nil, err
	}
	return inf, nil
}

// Ban bans the target and records the infraction.
func (e *Engine) Ban(ctx context.Context, req BanRequest) (*models.Infraction, error) {
	inf := e.newInfraction(models.InfractionBan, req.GuildID, req.ExecutorID, req.TargetID, req.Reason)
	err := e.punish(ctx, RequestBan, req.GuildID, req.ExecutorID, req.TargetID, inf, func() error {
		return e.platform.Ban(ctx, req.GuildID, req.TargetID, req.Reason, req.DeleteDays)
	}, auditlog.Event{
		Name:        auditlog.EventBan,
		Title:       "🔨 Usuario baneado",
		Description: fmt.Sprintf("<@%s> baneó a <@%s>.", req.ExecutorID, req.TargetID),
		Color:       0xe74c3c,
		Fields:      reasonField(req.Reason),
	})
	if err != nil {
		return nil, err
	}
	return inf, nil
}

// Kick expels the target and records the infraction.
func (e *Engine) Kick(ctx context.Context, req KickRequest) (*models.Infraction, error) {
	inf := e.newInfraction(models.InfractionKick, req.GuildID, req.ExecutorID, req.TargetID, req.Reason)
	err := e.punish(ctx, RequestKick, req.GuildID, req.ExecutorID, req.TargetID, inf, func() error {
		return e.platform.Kick(ctx, req.GuildID, req.TargetID, req.Reason)
	}, auditlog.Event{
		Name:        auditlog.EventKick,
		Title:       "👢 Usuario expulsado",
		Description: fmt.Sprintf("<@%s> expulsó a <@%s>.", req.ExecutorID, req.TargetID),
		Color:       0xe67e22,
		Fields:      reasonField(req.Reason),
	})
	if err != nil {
		return nil, err
	}
	return inf, nil
}

// punish is the shared workflow: duplicate guard, hierarchy guard, platform
// call, infraction, audit log. A failed infraction write is logged only; the
// platform action already happened.
func (e *Engine) punish(ctx context.Context, kind RequestType, guildID, executorID, targetID string,
	inf *models.Infraction, apply func() error, ev auditlog.Event) error {
	action := string(kind)

	err := e.dup.Run(kind, TargetKey(guildID, targetID), func() error {
		deny, err := e.CheckTarget(ctx, guildID, executorID, targetID)
		if err != nil {
			return err
		}
		if err := deny.Err(); err != nil {
			return err
		}

		if err := apply(); err != nil {
			return boterrors.Transport(action, err)
		}

		if e.infractions != nil {
			if err := e.infractions.CreateInfraction(ctx, inf); err != nil {
				logger.Error(fmt.Sprintf("No se pudo guardar la infracción %s: %v", inf.ID, err), "Moderation")
			}
		}

		ev.ActorID = executorID
		ev.TargetID = targetID
		ev.Fields = append(ev.Fields, &discordgo.MessageEmbedField{Name: "ID", Value: inf.ID})
		auditlog.Send(ctx, e.audit, guildID, ev)
		return nil
	})

	actionCount.WithLabelValues(action, outcomeLabel(err)).Inc()
	return err
}

func reasonField(reason string) []*discordgo.MessageEmbedField {
	if reason == "" {
		reason = "Sin razón"
	}
	return []*discordgo.MessageEmbedField{{Name: "Razón", Value: reason}}
}

func outcomeLabel(err error) string {
	var denied *boterrors.DeniedError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &denied):
		return "denied"
	case errors.Is(err, boterrors.ErrDuplicateRequest):
		return "duplicate"
	default:
		return "error"
	}
}
