// Package discordtest provides a recording interaction responder and
// interaction builders for handler tests.
package discordtest

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Responder records every interaction response, edit and followup.
type Responder struct {
	mu        sync.Mutex
	Responses []*discordgo.InteractionResponse
	Edits     []*discordgo.WebhookEdit
	Followups []*discordgo.WebhookParams
}

func (r *Responder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses = append(r.Responses, resp)
	return nil
}

func (r *Responder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edits = append(r.Edits, edit)
	return &discordgo.Message{}, nil
}

func (r *Responder) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Followups = append(r.Followups, data)
	return &discordgo.Message{}, nil
}

// LastText returns the content of the most recent visible output: a followup,
// an edit or an initial response, in that order of preference.
func (r *Responder) LastText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case len(r.Followups) > 0:
		return r.Followups[len(r.Followups)-1].Content
	case len(r.Edits) > 0:
		if c := r.Edits[len(r.Edits)-1].Content; c != nil {
			return *c
		}
		return ""
	case len(r.Responses) > 0:
		if d := r.Responses[len(r.Responses)-1].Data; d != nil {
			return d.Content
		}
	}
	return ""
}

// InteractionID is the ID of every built interaction.
const InteractionID = "I1"

// Invoker is the member that triggers the built interactions.
type Invoker struct {
	UserID      string
	Username    string
	Permissions int64
}

func (v Invoker) member() *discordgo.Member {
	return &discordgo.Member{
		User:        &discordgo.User{ID: v.UserID, Username: v.Username},
		Permissions: v.Permissions,
	}
}

// Command builds a chat input interaction. With sub set the options are nested
// under that subcommand. Users are added to the resolved payload.
func Command(v Invoker, name, sub string, users []*discordgo.User, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{Name: name, Options: opts}
	if sub != "" {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:    sub,
			Type:    discordgo.ApplicationCommandOptionSubCommand,
			Options: opts,
		}}
	}
	if len(users) > 0 {
		data.Resolved = &discordgo.ApplicationCommandInteractionDataResolved{Users: map[string]*discordgo.User{}}
		for _, u := range users {
			data.Resolved.Users[u.ID] = u
		}
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ID:        InteractionID,
		GuildID:   "G1",
		ChannelID: "C1",
		Member:    v.member(),
		Data:      data,
	}}
}

// MessageCommand builds a message context menu interaction targeting msg.
func MessageCommand(v Invoker, name string, msg *discordgo.Message) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ID:        InteractionID,
		GuildID:   "G1",
		ChannelID: "C1",
		Member:    v.member(),
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.MessageApplicationCommand,
			TargetID:    msg.ID,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Messages: map[string]*discordgo.Message{msg.ID: msg},
			},
		},
	}}
}

// Component builds a button interaction on msg. A nil msg becomes an empty message M1.
func Component(v Invoker, customID string, msg *discordgo.Message) *discordgo.InteractionCreate {
	if msg == nil {
		msg = &discordgo.Message{ID: "M1", ChannelID: "C1"}
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ID:        InteractionID,
		GuildID:   "G1",
		ChannelID: "C1",
		Member:    v.member(),
		Message:   msg,
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
	}}
}

// Modal builds a modal submission opened from msg with the given text input values.
func Modal(v Invoker, customID string, msg *discordgo.Message, values map[string]string) *discordgo.InteractionCreate {
	var rows []discordgo.MessageComponent
	for id, value := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: id, Value: value},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		ID:        InteractionID,
		GuildID:   "G1",
		ChannelID: "C1",
		Member:    v.member(),
		Message:   msg,
		Data:      discordgo.ModalSubmitInteractionData{CustomID: customID, Components: rows},
	}}
}

// Int, String, Bool and User build command options.
func Int(name string, v int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v)}
}

func String(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func Bool(name string, v bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionBoolean, Value: v}
}

func User(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: id}
}

func Role(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionRole, Value: id}
}
