package dev

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// createTimersCommand creates the /dev timers subcommand
func createTimersCommand(d Deps) *discord.Handler {
	return discord.NewCommand(
		"timers",
		"Muestra los temporizadores de roles temporales (Solo desarrolladores)",
		"dev",
		timersHandler(d),
	)
}

func timersHandler(d Deps) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		if d.Timers == nil {
			return ctx.Reply("❌ El programador de roles temporales no está disponible.")
		}
		grants, err := d.Timers.Active(ctx.Context())
		if err != nil {
			return err
		}
		return ctx.ReplyEmbed(timersEmbed(d.Timers.Armed(), grants))
	}
}

func timersEmbed(armed int, grants []*models.TemporaryRole) *discordgo.MessageEmbed {
	timed := lo.Filter(grants, func(g *models.TemporaryRole, _ int) bool { return !g.Permanent })

	next := "Ninguno"
	if len(timed) > 0 {
		soonest := lo.MinBy(timed, func(a, b *models.TemporaryRole) bool { return a.ExpiresAt.Before(b.ExpiresAt) })
		next = fmt.Sprintf("<t:%d:R> (`%s`)", soonest.ExpiresAt.Unix(), soonest.RequestMessageID)
	}

	return &discordgo.MessageEmbed{
		Title: "⏱️ Temporizadores",
		Color: 0x5865f2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Armados", Value: fmt.Sprintf("%d", armed), Inline: true},
			{Name: "Guardados", Value: fmt.Sprintf("%d", len(grants)), Inline: true},
			{Name: "Permanentes", Value: fmt.Sprintf("%d", len(grants)-len(timed)), Inline: true},
			{Name: "Próxima expiración", Value: next},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
