package discord

import (
	"context"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/bwmarrin/discordgo"
)

// Responder is the subset of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Context provides context for handler execution. Ephemeral and Guild are
// resolved by the dispatcher before Run is called.
type Context struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Handler     *Handler
	Guild       *config.GuildConfig
	Ephemeral   bool

	ctx       context.Context
	responder Responder

	mu           sync.Mutex
	acknowledged bool
	ackEphemeral bool
	pendingEdit  bool
	updateAck    bool
}

// NewContext builds a Context. Session may be nil when r is not a live session.
func NewContext(ctx context.Context, r Responder, i *discordgo.InteractionCreate, h *Handler) *Context {
	c := &Context{Interaction: i, Handler: h, ctx: ctx, responder: r}
	if s, ok := r.(*discordgo.Session); ok {
		c.Session = s
	}
	return c
}

// Context returns the context for outbound calls made by the handler.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Acknowledged reports whether the interaction already got its initial response.
func (c *Context) Acknowledged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acknowledged
}

// deferResponse sends the empty acknowledgement for the handler's deferral policy.
func (c *Context) deferResponse(update bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if update {
		resp.Type = discordgo.InteractionResponseDeferredMessageUpdate
	} else if c.Ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}

	if err := c.responder.InteractionRespond(c.Interaction.Interaction, resp, c.opts()...); err != nil {
		return err
	}
	c.acknowledged = true
	c.ackEphemeral = c.Ephemeral && !update
	c.pendingEdit = !update
	c.updateAck = update
	return nil
}

func (c *Context) opts() []discordgo.RequestOption {
	if c.ctx == nil {
		return nil
	}
	return []discordgo.RequestOption{discordgo.WithContext(c.ctx)}
}

// send delivers a new message. Before acknowledgement it is the initial
// response; a deferred reply of the same visibility is edited in place;
// anything else becomes a followup.
func (c *Context) send(data *discordgo.InteractionResponseData, ephemeral bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ephemeral {
		data.Flags |= discordgo.MessageFlagsEphemeral
	}

	if !c.acknowledged {
		err := c.responder.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}, c.opts()...)
		if err != nil {
			return err
		}
		c.acknowledged = true
		c.ackEphemeral = ephemeral
		return nil
	}

	if c.pendingEdit && c.ackEphemeral == ephemeral {
		c.pendingEdit = false
		return c.editOriginal(data)
	}

	_, err := c.responder.FollowupMessageCreate(c.Interaction.Interaction, true, &discordgo.WebhookParams{
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
		Flags:      data.Flags,
	}, c.opts()...)
	return err
}

func (c *Context) editOriginal(data *discordgo.InteractionResponseData) error {
	edit := &discordgo.WebhookEdit{Content: &data.Content}
	if data.Embeds != nil {
		edit.Embeds = &data.Embeds
	}
	if data.Components != nil {
		edit.Components = &data.Components
	}
	_, err := c.responder.InteractionResponseEdit(c.Interaction.Interaction, edit, c.opts()...)
	return err
}

// Reply sends content with the resolved visibility.
func (c *Context) Reply(content string) error {
	return c.send(&discordgo.InteractionResponseData{Content: content}, c.Ephemeral)
}

// ReplyEmbed sends an embed with the resolved visibility.
func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return c.send(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}, c.Ephemeral)
}

// ReplyComplex sends a full message with the resolved visibility.
func (c *Context) ReplyComplex(data *discordgo.InteractionResponseData) error {
	return c.send(data, c.Ephemeral)
}

// ReplyEphemeral sends an ephemeral reply visible only to the user
func (c *Context) ReplyEphemeral(content string) error {
	return c.send(&discordgo.InteractionResponseData{Content: content}, true)
}

// ReplyEphemeralEmbed sends an ephemeral embed reply visible only to the user
func (c *Context) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return c.send(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}, true)
}

// EditReply replaces the content of the original response.
func (c *Context) EditReply(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingEdit = false
	return c.editOriginal(&discordgo.InteractionResponseData{Content: content})
}

// Update edits the message a component is attached to.
func (c *Context) Update(data *discordgo.InteractionResponseData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.acknowledged {
		err := c.responder.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: data,
		}, c.opts()...)
		if err == nil {
			c.acknowledged = true
			c.updateAck = true
		}
		return err
	}
	return c.editOriginal(data)
}

// ShowModal opens a modal. It must be the first response.
func (c *Context) ShowModal(customID, title string, rows ...discordgo.MessageComponent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.responder.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	}, c.opts()...)
	if err == nil {
		c.acknowledged = true
	}
	return err
}

// RespondChoices answers an autocomplete interaction.
func (c *Context) RespondChoices(choices []*discordgo.ApplicationCommandOptionChoice) error {
	return c.responder.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}, c.opts()...)
}

// fail shows a failure line to the invoker. A pending deferred reply is
// finalized with it so the "thinking" state never lingers.
func (c *Context) fail(message string) error {
	c.mu.Lock()
	pending := c.pendingEdit
	c.mu.Unlock()

	if pending {
		return c.EditReply(message)
	}
	return c.ReplyEphemeral(message)
}

// GetOption retrieves an option value by name
func (c *Context) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if c.Interaction.Type != discordgo.InteractionApplicationCommand &&
		c.Interaction.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return nil
	}
	return findOption(c.Interaction.ApplicationCommandData().Options, name)
}

// findOption recursively finds an option by name
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// GetStringOption retrieves a string option value
func (c *Context) GetStringOption(name string) string {
	opt := c.GetOption(name)
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}

// GetIntOption retrieves an integer option value
func (c *Context) GetIntOption(name string) int64 {
	opt := c.GetOption(name)
	if opt == nil {
		return 0
	}
	return opt.IntValue()
}

// GetBoolOption retrieves a boolean option value
func (c *Context) GetBoolOption(name string) bool {
	opt := c.GetOption(name)
	if opt == nil {
		return false
	}
	return opt.BoolValue()
}

// GetUserOption retrieves a user option value, preferring the resolved payload.
func (c *Context) GetUserOption(name string) *discordgo.User {
	opt := c.GetOption(name)
	if opt == nil {
		return nil
	}
	if id, ok := opt.Value.(string); ok {
		if res := c.Interaction.ApplicationCommandData().Resolved; res != nil {
			if u, ok := res.Users[id]; ok {
				return u
			}
		}
	}
	return opt.UserValue(c.Session)
}

// GetRoleOption retrieves the ID of a role option.
func (c *Context) GetRoleOption(name string) string {
	opt := c.GetOption(name)
	if opt == nil {
		return ""
	}
	id, _ := opt.Value.(string)
	return id
}

// TargetMessage returns the message a message context menu was used on.
func (c *Context) TargetMessage() *discordgo.Message {
	if c.Interaction.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	data := c.Interaction.ApplicationCommandData()
	if data.Resolved == nil {
		return nil
	}
	return data.Resolved.Messages[data.TargetID]
}

// CustomID returns the component or modal custom ID.
func (c *Context) CustomID() string {
	switch c.Interaction.Type {
	case discordgo.InteractionMessageComponent:
		return c.Interaction.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return c.Interaction.ModalSubmitData().CustomID
	default:
		return ""
	}
}

// ModalValue returns the value of a text input in a submitted modal.
func (c *Context) ModalValue(inputID string) string {
	if c.Interaction.Type != discordgo.InteractionModalSubmit {
		return ""
	}
	return findInputValue(c.Interaction.ModalSubmitData().Components, inputID)
}

func findInputValue(components []discordgo.MessageComponent, inputID string) string {
	for _, comp := range components {
		switch v := comp.(type) {
		case *discordgo.ActionsRow:
			if val := findInputValue(v.Components, inputID); val != "" {
				return val
			}
		case discordgo.ActionsRow:
			if val := findInputValue(v.Components, inputID); val != "" {
				return val
			}
		case *discordgo.TextInput:
			if v.CustomID == inputID {
				return v.Value
			}
		case discordgo.TextInput:
			if v.CustomID == inputID {
				return v.Value
			}
		}
	}
	return ""
}

// Message returns the message a component is attached to.
func (c *Context) Message() *discordgo.Message {
	return c.Interaction.Message
}

// GuildID returns the guild where the interaction occurred
func (c *Context) GuildID() string {
	return c.Interaction.GuildID
}

// ChannelID returns the channel where the interaction occurred
func (c *Context) ChannelID() string {
	return c.Interaction.ChannelID
}

// User returns the user who triggered the interaction
func (c *Context) User() *discordgo.User {
	if c.Interaction.Member != nil && c.Interaction.Member.User != nil {
		return c.Interaction.Member.User
	}
	if c.Interaction.User != nil {
		return c.Interaction.User
	}
	return &discordgo.User{}
}

// Member returns the guild member who triggered the interaction
func (c *Context) Member() *discordgo.Member {
	return c.Interaction.Member
}
