package roles

import (
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/rolerequest"
	"github.com/PancyStudios/PancyModGo/internal/temprole"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

func createApproveButton(grants Grants) *discord.Handler {
	return discord.NewExactComponent(rolerequest.ApproveID, approveHandler(grants)).
		WithUserPermissions(discordgo.PermissionManageRoles).
		WithDeferral(discord.DeferDefer)
}

func approveHandler(grants Grants) discord.HandlerFunc {
	return func(ctx *discord.Context) error {
		msg := ctx.Message()
		req, err := rolerequest.Parse(msg)
		if err != nil {
			return ctx.ReplyEphemeral("❌ Este mensaje no es una solicitud de rol válida.")
		}
		d, permanent, err := req.Duration()
		if err != nil {
			return ctx.ReplyEphemeral("❌ La duración de la solicitud no es válida.")
		}

		approver := ctx.User().ID
		rec, err := grants.Activate(ctx.Context(), temprole.GrantRequest{
			RequestMessageID: msg.ID,
			GuildID:          ctx.GuildID(),
			RoleID:           req.RoleID(),
			UserIDs:          req.UserIDs(),
			Duration:         d,
			Permanent:        permanent,
			ApprovedBy:       approver,
		})
		switch {
		case errors.Is(err, temprole.ErrAlreadyActive), errors.Is(err, boterrors.ErrDuplicateRequest):
			return ctx.ReplyEphemeral("⚠️ Esta solicitud ya fue aprobada.")
		case errors.Is(err, temprole.ErrNoMembers):
			return ctx.ReplyEphemeral("❌ Ninguno de los usuarios está en el servidor.")
		case errors.Is(err, temprole.ErrNotStarted):
			return ctx.ReplyEphemeral("⏳ El bot aún se está iniciando, inténtalo en unos segundos.")
		case err != nil:
			return err
		}

		status := fmt.Sprintf("✅ Aprobado por <@%s>", approver)
		if !rec.Permanent {
			status += fmt.Sprintf(" · expira <t:%d:R>", rec.ExpiresAt.Unix())
		}
		return ctx.Update(req.Closed(status, 0x2ecc71))
	}
}

func createDenyButton() *discord.Handler {
	return discord.NewExactComponent(rolerequest.DenyID, denyHandler).
		WithUserPermissions(discordgo.PermissionManageRoles)
}

func denyHandler(ctx *discord.Context) error {
	req, err := rolerequest.Parse(ctx.Message())
	if err != nil {
		return ctx.ReplyEphemeral("❌ Este mensaje no es una solicitud de rol válida.")
	}
	return ctx.Update(req.Closed(fmt.Sprintf("❌ Denegado por <@%s>", ctx.User().ID), 0xe74c3c))
}
