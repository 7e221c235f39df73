package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// MaxPurge is the largest scan a single purge performs.
const MaxPurge = platform.BulkDeleteLimit

// PurgeRequest selects the messages to remove. An empty TargetID purges every author.
// Responses to ExcludeInteractionID are never deleted nor counted against Amount.
type PurgeRequest struct {
	GuildID    string
	ChannelID  string
	TargetID   string
	ExecutorID string
	Amount     int

	ExcludeInteractionID string
}

// PurgeResult counts what a purge did. Skipped messages were already gone.
type PurgeResult struct {
	Deleted int
	Scanned int
	Skipped int
}

// Purge scans the most recent Amount messages and deletes the eligible ones.
// Messages inside the bulk window go out in batches; older ones are deleted
// one by one at a paced rate. On a platform failure the partial result is
// returned together with the error.
func (e *Engine) Purge(ctx context.Context, req PurgeRequest) (PurgeResult, error) {
	var res PurgeResult

	amount := min(req.Amount, MaxPurge)
	if amount <= 0 {
		return res, nil
	}

	release, err := e.dup.Acquire(RequestPurge, req.ChannelID)
	if err != nil {
		return res, err
	}
	defer release()

	fetch := amount
	if req.ExcludeInteractionID != "" {
		fetch = min(amount+1, MaxPurge)
	}
	msgs, err := e.platform.RecentMessages(ctx, req.ChannelID, fetch)
	if err != nil {
		actionCount.WithLabelValues("purge", "error").Inc()
		return res, boterrors.Transport("fetch messages", err)
	}
	if req.ExcludeInteractionID != "" {
		msgs = lo.Reject(msgs, func(m platform.Message, _ int) bool { return m.InteractionID == req.ExcludeInteractionID })
	}
	if len(msgs) > amount {
		msgs = msgs[:amount]
	}
	res.Scanned = len(msgs)

	eligible := lo.Filter(msgs, func(m platform.Message, _ int) bool {
		return req.TargetID == "" || m.AuthorID == req.TargetID
	})
	if len(eligible) == 0 {
		actionCount.WithLabelValues("purge", "empty").Inc()
		return res, nil
	}

	// A small margin keeps messages right at the edge out of the bulk call.
	cutoff := e.now().Add(-platform.BulkDeleteMaxAge).Add(time.Minute)
	isRecent := func(m platform.Message, _ int) bool { return m.CreatedAt.After(cutoff) }
	toID := func(m platform.Message, _ int) string { return m.ID }

	recent := lo.Map(lo.Filter(eligible, isRecent), toID)
	old := lo.Map(lo.Reject(eligible, isRecent), toID)

	err = e.bulkDelete(ctx, req.ChannelID, recent, &res)
	if err == nil {
		err = e.singleDelete(ctx, req.ChannelID, old, &res)
	}

	if err != nil {
		actionCount.WithLabelValues("purge", "error").Inc()
		logger.Error(fmt.Sprintf("Purga interrumpida en %s: %v", req.ChannelID, err), "Moderation")
		return res, err
	}
	actionCount.WithLabelValues("purge", "ok").Inc()

	if res.Deleted > 0 {
		auditlog.Send(ctx, e.audit, req.GuildID, purgeEvent(req, res))
	}
	return res, nil
}

func (e *Engine) bulkDelete(ctx context.Context, channelID string, ids []string, res *PurgeResult) error {
	for _, chunk := range lo.Chunk(ids, platform.BulkDeleteLimit) {
		var err error
		if len(chunk) == 1 {
			err = e.platform.DeleteMessage(ctx, channelID, chunk[0])
		} else {
			err = e.platform.DeleteMessages(ctx, channelID, chunk)
		}
		switch {
		case err == nil:
			res.Deleted += len(chunk)
			purgedMessages.WithLabelValues("bulk").Add(float64(len(chunk)))
		case errors.Is(err, platform.ErrMessageNotFound):
			res.Skipped += len(chunk)
		default:
			return boterrors.Transport("bulk delete", err)
		}
	}
	return nil
}

func (e *Engine) singleDelete(ctx context.Context, channelID string, ids []string, res *PurgeResult) error {
	for _, id := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			return boterrors.Transport("delete message", err)
		}
		err := e.platform.DeleteMessage(ctx, channelID, id)
		switch {
		case err == nil:
			res.Deleted++
			purgedMessages.WithLabelValues("single").Inc()
		case errors.Is(err, platform.ErrMessageNotFound):
			res.Skipped++
		default:
			return boterrors.Transport("delete message", err)
		}
	}
	return nil
}

func purgeEvent(req PurgeRequest, res PurgeResult) auditlog.Event {
	desc := fmt.Sprintf("<@%s> eliminó **%d** mensajes en <#%s>.", req.ExecutorID, res.Deleted, req.ChannelID)
	if req.TargetID != "" {
		desc = fmt.Sprintf("<@%s> eliminó **%d** mensajes de <@%s> en <#%s>.", req.ExecutorID, res.Deleted, req.TargetID, req.ChannelID)
	}
	return auditlog.Event{
		Name:        auditlog.EventPurge,
		Title:       "🧹 Mensajes purgados",
		Description: desc,
		Color:       0x3498db,
		ActorID:     req.ExecutorID,
		TargetID:    req.TargetID,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Revisados", Value: fmt.Sprint(res.Scanned), Inline: true},
			{Name: "Eliminados", Value: fmt.Sprint(res.Deleted), Inline: true},
		},
	}
}
