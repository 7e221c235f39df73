package roles

import (
	"errors"

	"github.com/PancyStudios/PancyModGo/internal/rolerequest"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createNoteButton handles both states of the note toggle.
func createNoteButton() *discord.Handler {
	return discord.NewComponent(rolerequest.NotePrefix, noteButtonHandler).
		WithUserPermissions(discordgo.PermissionManageRoles)
}

func noteButtonHandler(ctx *discord.Context) error {
	req, err := rolerequest.Parse(ctx.Message())
	if err != nil {
		return ctx.ReplyEphemeral("❌ Este mensaje no es una solicitud de rol válida.")
	}

	switch ctx.CustomID() {
	case rolerequest.NoteAddID:
		if req.State() == rolerequest.HasNote {
			return ctx.ReplyEphemeral("⚠️ La solicitud ya tiene una nota.")
		}
		return ctx.ShowModal(rolerequest.NoteModalID, "Añadir nota",
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  rolerequest.NoteInputID,
					Label:     "Nota",
					Style:     discordgo.TextInputParagraph,
					Required:  true,
					MaxLength: 1000,
				},
			}},
		)
	case rolerequest.NoteRemoveID:
		next, err := req.RemoveNote()
		if errors.Is(err, rolerequest.ErrNoNote) {
			return ctx.ReplyEphemeral("⚠️ La solicitud no tiene nota.")
		}
		if err != nil {
			return err
		}
		return ctx.Update(next.ResponseData())
	default:
		return ctx.ReplyEphemeral("❌ Botón no válido.")
	}
}

func createNoteModal() *discord.Handler {
	return discord.NewExactComponent(rolerequest.NoteModalID, noteModalHandler).
		WithUserPermissions(discordgo.PermissionManageRoles)
}

func noteModalHandler(ctx *discord.Context) error {
	req, err := rolerequest.Parse(ctx.Message())
	if err != nil {
		return ctx.ReplyEphemeral("❌ Este mensaje no es una solicitud de rol válida.")
	}

	next, err := req.AddNote(ctx.User().Username, ctx.ModalValue(rolerequest.NoteInputID))
	switch {
	case errors.Is(err, rolerequest.ErrEmptyNote):
		return ctx.ReplyEphemeral("❌ La nota no puede estar vacía.")
	case errors.Is(err, rolerequest.ErrHasNote):
		return ctx.ReplyEphemeral("⚠️ La solicitud ya tiene una nota.")
	case err != nil:
		return err
	}
	return ctx.Update(next.ResponseData())
}
