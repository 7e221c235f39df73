// Package rolerequest models a role-request message: the embed describing the
// request and its control row. The note toggle is a two state machine kept in
// the first button of that row.
package rolerequest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// Component custom IDs.
const (
	NoteAddID    = "rolereq-note-add"
	NoteRemoveID = "rolereq-note-remove"
	NotePrefix   = "rolereq-note"
	ApproveID    = "rolereq-approve"
	DenyID       = "rolereq-deny"
	NoteModalID  = "rolereq-note-modal"
	NoteInputID  = "rolereq-note-text"
)

const (
	addLabel    = "Añadir nota"
	removeLabel = "Quitar nota"

	fieldSummary  = "Resumen"
	fieldUsers    = "Usuarios"
	fieldDuration = "Duración"
	notePrefix    = "📌 Nota de "

	permanentLabel = "Permanente"
	baseFields     = 3
)

// State is the note state of a request message.
type State int

const (
	NoNote State = iota
	HasNote
)

func (s State) String() string {
	if s == HasNote {
		return "has-note"
	}
	return "no-note"
}

var (
	ErrNotRequest  = errors.New("message is not a role request")
	ErrHasNote     = errors.New("role request already has a note")
	ErrNoNote      = errors.New("role request has no note")
	ErrEmptyNote   = errors.New("note is empty")
	ErrBadDuration = errors.New("invalid duration")
)

var (
	roleMention = regexp.MustCompile(`<@&(\d+)>`)
	userMention = regexp.MustCompile(`<@!?(\d+)>`)
)

// Request is an immutable view of a role-request message.
type Request struct {
	state State
	embed discordgo.MessageEmbed
}

// Details describes a new request.
type Details struct {
	RequesterID string
	RoleID      string
	UserIDs     []string
	Duration    time.Duration
	Permanent   bool
	Reason      string
}

// New builds a request in the NoNote state.
func New(details Details) *Request {
	duration := permanentLabel
	if !details.Permanent {
		duration = FormatDuration(details.Duration)
	}
	users := lo.Map(lo.Uniq(details.UserIDs), func(id string, _ int) string { return "<@" + id + ">" })

	return &Request{
		state: NoNote,
		embed: discordgo.MessageEmbed{
			Title:       "📝 Solicitud de rol temporal",
			Description: details.Reason,
			Color:       0x3498db,
			Fields: []*discordgo.MessageEmbedField{
				{Name: fieldSummary, Value: fmt.Sprintf("<@%s> solicita <@&%s>", details.RequesterID, details.RoleID)},
				{Name: fieldUsers, Value: strings.Join(users, ", ")},
				{Name: fieldDuration, Value: duration, Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
		},
	}
}

// Parse reads the request state from a posted message.
func Parse(msg *discordgo.Message) (*Request, error) {
	if msg == nil || len(msg.Embeds) == 0 || msg.Embeds[0] == nil {
		return nil, ErrNotRequest
	}
	toggles := lo.Filter(buttonIDs(msg.Components), func(id string, _ int) bool {
		return id == NoteAddID || id == NoteRemoveID
	})
	if len(toggles) != 1 {
		return nil, fmt.Errorf("%w: %d note toggles", ErrNotRequest, len(toggles))
	}

	src := msg.Embeds[0]
	if len(src.Fields) < baseFields || src.Fields[0].Name != fieldSummary {
		return nil, ErrNotRequest
	}

	r := &Request{state: NoNote, embed: copyEmbed(src)}
	if toggles[0] == NoteRemoveID {
		r.state = HasNote
		if len(r.embed.Fields) <= baseFields {
			return nil, fmt.Errorf("%w: note toggle without note field", ErrNotRequest)
		}
	}
	return r, nil
}

// State returns the note state.
func (r *Request) State() State { return r.state }

// FieldCount returns the number of embed fields.
func (r *Request) FieldCount() int { return len(r.embed.Fields) }

// AddNote returns a copy with the note appended and the toggle set to remove.
func (r *Request) AddNote(author, text string) (*Request, error) {
	if r.state == HasNote {
		return nil, ErrHasNote
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}

	next := &Request{state: HasNote, embed: copyEmbed(&r.embed)}
	next.embed.Fields = append(next.embed.Fields, &discordgo.MessageEmbedField{
		Name:  notePrefix + author,
		Value: text,
	})
	return next, nil
}

// RemoveNote returns a copy without the note and the toggle set to add.
func (r *Request) RemoveNote() (*Request, error) {
	if r.state == NoNote {
		return nil, ErrNoNote
	}
	next := &Request{state: NoNote, embed: copyEmbed(&r.embed)}
	next.embed.Fields = next.embed.Fields[:len(next.embed.Fields)-1]
	return next, nil
}

// Note returns the note text, empty in NoNote.
func (r *Request) Note() string {
	if r.state == NoNote {
		return ""
	}
	return r.embed.Fields[len(r.embed.Fields)-1].Value
}

// RoleID returns the requested role.
func (r *Request) RoleID() string {
	if m := roleMention.FindStringSubmatch(r.field(fieldSummary)); m != nil {
		return m[1]
	}
	return ""
}

// RequesterID returns the member who opened the request.
func (r *Request) RequesterID() string {
	summary := roleMention.ReplaceAllString(r.field(fieldSummary), "")
	if m := userMention.FindStringSubmatch(summary); m != nil {
		return m[1]
	}
	return ""
}

// UserIDs returns the users the role is requested for.
func (r *Request) UserIDs() []string {
	matches := userMention.FindAllStringSubmatch(r.field(fieldUsers), -1)
	return lo.Uniq(lo.Map(matches, func(m []string, _ int) string { return m[1] }))
}

// Duration returns the requested duration, or permanent.
func (r *Request) Duration() (d time.Duration, permanent bool, err error) {
	raw := r.field(fieldDuration)
	if raw == permanentLabel {
		return 0, true, nil
	}
	d, err = ParseDuration(raw)
	return d, false, err
}

func (r *Request) field(name string) string {
	for _, f := range r.embed.Fields[:baseFields] {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Embed returns a copy of the embed.
func (r *Request) Embed() *discordgo.MessageEmbed {
	e := copyEmbed(&r.embed)
	return &e
}

// Components renders the control row for the current state.
func (r *Request) Components() []discordgo.MessageComponent {
	toggle := discordgo.Button{Label: addLabel, Style: discordgo.SecondaryButton, CustomID: NoteAddID}
	if r.state == HasNote {
		toggle = discordgo.Button{Label: removeLabel, Style: discordgo.SecondaryButton, CustomID: NoteRemoveID}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			toggle,
			discordgo.Button{Label: "Aprobar", Style: discordgo.SuccessButton, CustomID: ApproveID},
			discordgo.Button{Label: "Denegar", Style: discordgo.DangerButton, CustomID: DenyID},
		}},
	}
}

// Closed renders the request after approval or denial: the embed with a
// status line and no controls.
func (r *Request) Closed(status string, color int) *discordgo.InteractionResponseData {
	e := r.Embed()
	e.Color = color
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Estado", Value: status})
	return &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{e},
		Components: []discordgo.MessageComponent{},
	}
}

// Send renders the request as a new message.
func (r *Request) Send() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{r.Embed()},
		Components: r.Components(),
	}
}

// MessageEdit renders the in-place edit of the posted message.
func (r *Request) MessageEdit(channelID, messageID string) *discordgo.MessageEdit {
	embeds := []*discordgo.MessageEmbed{r.Embed()}
	components := r.Components()
	return &discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	}
}

// ResponseData renders the request as an interaction message update.
func (r *Request) ResponseData() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{r.Embed()},
		Components: r.Components(),
	}
}

func copyEmbed(src *discordgo.MessageEmbed) discordgo.MessageEmbed {
	e := *src
	e.Fields = lo.Map(src.Fields, func(f *discordgo.MessageEmbedField, _ int) *discordgo.MessageEmbedField {
		cp := *f
		return &cp
	})
	return e
}

// buttonIDs walks rows of both decoded (pointer) and constructed (value) components.
func buttonIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			ids = append(ids, buttonIDs(v.Components)...)
		case discordgo.ActionsRow:
			ids = append(ids, buttonIDs(v.Components)...)
		case *discordgo.Button:
			ids = append(ids, v.CustomID)
		case discordgo.Button:
			ids = append(ids, v.CustomID)
		}
	}
	return ids
}

// ParseDuration accepts Go durations plus a "d" suffix for days, e.g. "7d" or
// "1d12h". The result is a whole number of minutes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	var days time.Duration
	if i := strings.Index(s, "d"); i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		days = time.Duration(n) * 24 * time.Hour
		s = s[i+1:]
	}
	var rest time.Duration
	if s != "" {
		var err error
		if rest, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
	}
	d := days + rest
	if d <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrBadDuration)
	}
	if d%time.Minute != 0 {
		return 0, fmt.Errorf("%w: must be whole minutes", ErrBadDuration)
	}
	return d, nil
}

// FormatDuration renders d at minute precision in the form ParseDuration reads back.
func FormatDuration(d time.Duration) string {
	days := d / (24 * time.Hour)
	rest := d % (24 * time.Hour)
	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	h := rest / time.Hour
	m := (rest % time.Hour) / time.Minute
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if b.Len() == 0 {
		return rest.String()
	}
	return b.String()
}
