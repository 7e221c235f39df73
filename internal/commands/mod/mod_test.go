package mod

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/discord/discordtest"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

type fakeModerator struct {
	mu         sync.Mutex
	purges     []moderation.PurgeRequest
	quickMutes []moderation.QuickMuteParams
	bans       []moderation.BanRequest

	purgeResult moderation.PurgeResult
	purgeErr    error
	banErr      error
	infractions []*models.Infraction
}

func (f *fakeModerator) Purge(_ context.Context, req moderation.PurgeRequest) (moderation.PurgeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges = append(f.purges, req)
	return f.purgeResult, f.purgeErr
}

func (f *fakeModerator) Mute(_ context.Context, req moderation.MuteRequest) (*models.Infraction, error) {
	exp := time.Now().Add(req.Duration)
	return &models.Infraction{ID: "inf-1", ModeratorID: req.ExecutorID, Reason: req.Reason, ExpiresAt: &exp}, nil
}

func (f *fakeModerator) Ban(_ context.Context, req moderation.BanRequest) (*models.Infraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, req)
	if f.banErr != nil {
		return nil, f.banErr
	}
	return &models.Infraction{ID: "inf-2", ModeratorID: req.ExecutorID, Reason: req.Reason}, nil
}

func (f *fakeModerator) Kick(_ context.Context, req moderation.KickRequest) (*models.Infraction, error) {
	return &models.Infraction{ID: "inf-3", ModeratorID: req.ExecutorID, Reason: req.Reason}, nil
}

func (f *fakeModerator) HandleQuickMute(_ context.Context, p moderation.QuickMuteParams) moderation.QuickMuteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quickMutes = append(f.quickMutes, p)
	return moderation.QuickMuteResult{Response: "🔇 silenciado"}
}

func (f *fakeModerator) Infractions(context.Context, string, string) ([]*models.Infraction, error) {
	return f.infractions, nil
}

var moderator = discordtest.Invoker{UserID: "MOD", Username: "mod", Permissions: discordgo.PermissionAdministrator}

func setup(t *testing.T, m Moderator) *discord.Dispatcher {
	t.Helper()
	reg := discord.NewRegistry()
	if err := Register(reg, m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return discord.NewDispatcher(reg, nil, nil)
}

func TestRegister(t *testing.T) {
	reg := discord.NewRegistry()
	if err := Register(reg, &fakeModerator{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, name := range []string{
		"mod.ban", "mod.kick", "mod.mute", "mod.quickmute", "mod.purge", "mod.infractions",
		"Purgar mensajes del autor", "quickmute-short-U2", "inf-search-U2-1-next",
	} {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("Resolve(%q) error = %v", name, err)
		}
	}

	if got := len(reg.ApplicationCommands()); got != 2 {
		t.Errorf("ApplicationCommands() = %d, want 2", got)
	}
}

func TestParseQuickMuteID(t *testing.T) {
	tests := []struct {
		id       string
		wantDur  moderation.QuickMuteDuration
		wantUser string
		wantOK   bool
	}{
		{"quickmute-short-U2", moderation.QuickMuteShort, "U2", true},
		{"quickmute-long-123", moderation.QuickMuteLong, "123", true},
		{"quickmute-short-", "", "", false},
		{"quickmute-", "", "", false},
		{"other-short-U2", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, user, ok := parseQuickMuteID(tt.id)
			if d != tt.wantDur || user != tt.wantUser || ok != tt.wantOK {
				t.Errorf("parseQuickMuteID(%q) = %q, %q, %v, want %q, %q, %v", tt.id, d, user, ok, tt.wantDur, tt.wantUser, tt.wantOK)
			}
		})
	}
}

func TestParsePageID(t *testing.T) {
	tests := []struct {
		id       string
		wantUser string
		wantPage int
		wantOK   bool
	}{
		{"inf-search-123-0", "123", 0, true},
		{"inf-search-123-2-next", "123", 2, true},
		{"inf-search-123", "", 0, false},
		{"inf-search-123-x", "", 0, false},
		{"inf-search--1", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			user, page, ok := parsePageID(tt.id)
			if user != tt.wantUser || page != tt.wantPage || ok != tt.wantOK {
				t.Errorf("parsePageID(%q) = %q, %d, %v, want %q, %d, %v", tt.id, user, page, ok, tt.wantUser, tt.wantPage, tt.wantOK)
			}
		})
	}
}

func someInfractions(n int) []*models.Infraction {
	infs := make([]*models.Infraction, n)
	for i := range infs {
		infs[i] = &models.Infraction{ID: "id", Type: models.InfractionMute, ModeratorID: "MOD", Reason: "spam", CreatedAt: time.Unix(1700000000, 0)}
	}
	return infs
}

func pagerButtons(t *testing.T, data *discordgo.InteractionResponseData) (discordgo.Button, discordgo.Button) {
	t.Helper()
	if len(data.Components) != 1 {
		t.Fatalf("components = %d rows, want 1", len(data.Components))
	}
	row := data.Components[0].(discordgo.ActionsRow)
	return row.Components[0].(discordgo.Button), row.Components[1].(discordgo.Button)
}

func TestInfractionsPage(t *testing.T) {
	infs := someInfractions(12)

	first := infractionsPage(infs, "U2", 0)
	if got := strings.Count(first.Embeds[0].Description, "MUTE"); got != infractionsPerPage {
		t.Errorf("first page lists %d infractions, want %d", got, infractionsPerPage)
	}
	prev, next := pagerButtons(t, first)
	if !prev.Disabled || next.Disabled {
		t.Errorf("first page prev.Disabled = %v, next.Disabled = %v, want true, false", prev.Disabled, next.Disabled)
	}
	if prev.CustomID == next.CustomID {
		t.Errorf("pager buttons share custom ID %q", prev.CustomID)
	}

	last := infractionsPage(infs, "U2", 9)
	if got := strings.Count(last.Embeds[0].Description, "MUTE"); got != 2 {
		t.Errorf("clamped last page lists %d infractions, want 2", got)
	}
	if !strings.Contains(last.Embeds[0].Footer.Text, "3/3") {
		t.Errorf("footer = %q, want page 3/3", last.Embeds[0].Footer.Text)
	}
	_, next = pagerButtons(t, last)
	if !next.Disabled {
		t.Error("last page next button is enabled")
	}

	empty := infractionsPage(nil, "U2", 0)
	if empty.Embeds[0].Color != 0x00FF00 || len(empty.Components) != 0 {
		t.Errorf("empty page = color %x with %d rows, want green without buttons", empty.Embeds[0].Color, len(empty.Components))
	}
}

func TestQuickMuteButton(t *testing.T) {
	m := &fakeModerator{}
	d := setup(t, m)
	r := &discordtest.Responder{}

	if err := d.Dispatch(r, discordtest.Component(moderator, "quickmute-long-U2", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(m.quickMutes) != 1 {
		t.Fatalf("quick mutes = %d, want 1", len(m.quickMutes))
	}
	if p := m.quickMutes[0]; p.TargetID != "U2" || p.Duration != moderation.QuickMuteLong || p.ExecutorID != "MOD" {
		t.Errorf("params = %+v, want U2/long/MOD", p)
	}
	if len(r.Responses) != 1 || r.Responses[0].Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatalf("responses = %+v, want one ephemeral reply", r.Responses)
	}
	if got := r.LastText(); got != "🔇 silenciado" {
		t.Errorf("reply = %q, want the quick mute response", got)
	}
}

func TestQuickMuteButtonRequiresPermission(t *testing.T) {
	m := &fakeModerator{}
	d := setup(t, m)
	r := &discordtest.Responder{}

	member := discordtest.Invoker{UserID: "U9"}
	if err := d.Dispatch(r, discordtest.Component(member, "quickmute-short-U2", nil)); err == nil {
		t.Fatal("Dispatch() error = nil, want a denial")
	}
	if len(m.quickMutes) != 0 {
		t.Errorf("quick mutes = %d, want 0", len(m.quickMutes))
	}
}

func TestPurgeCommand(t *testing.T) {
	m := &fakeModerator{purgeResult: moderation.PurgeResult{Deleted: 40, Scanned: 100}}
	d := setup(t, m)
	r := &discordtest.Responder{}

	target := &discordgo.User{ID: "U1", Username: "spammer"}
	i := discordtest.Command(moderator, "mod", "purge", []*discordgo.User{target},
		discordtest.Int("cantidad", 100), discordtest.User("usuario", "U1"))
	if err := d.Dispatch(r, i); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(m.purges) != 1 || m.purges[0].TargetID != "U1" || m.purges[0].Amount != 100 || m.purges[0].ChannelID != "C1" {
		t.Fatalf("purges = %+v, want one for U1 in C1", m.purges)
	}
	if r.Responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Errorf("first response type = %v, want deferred channel message", r.Responses[0].Type)
	}
	if got := r.LastText(); !strings.Contains(got, "40") {
		t.Errorf("reply = %q, want the deleted count", got)
	}
}

func TestPurgeInPublicChannelKeepsOwnResponse(t *testing.T) {
	m := &fakeModerator{purgeResult: moderation.PurgeResult{Deleted: 5, Scanned: 5}}
	reg := discord.NewRegistry()
	if err := Register(reg, m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	guilds := config.NewGuildStore(&config.GuildConfig{GuildID: "G1", PublicChannels: []string{"C1"}})
	d := discord.NewDispatcher(reg, nil, guilds)
	r := &discordtest.Responder{}

	if err := d.Dispatch(r, discordtest.Command(moderator, "mod", "purge", nil, discordtest.Int("cantidad", 5))); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if r.Responses[0].Data != nil && r.Responses[0].Data.Flags&discordgo.MessageFlagsEphemeral != 0 {
		t.Fatalf("deferred response flags = %v, want a public reply", r.Responses[0].Data.Flags)
	}
	if len(m.purges) != 1 || m.purges[0].ExcludeInteractionID != discordtest.InteractionID {
		t.Fatalf("purges = %+v, want the interaction response excluded", m.purges)
	}
	if m.purges[0].Amount != 5 {
		t.Errorf("Amount = %d, want 5", m.purges[0].Amount)
	}
	if len(r.Edits) != 1 {
		t.Errorf("edits = %d, want the summary edited into the deferred reply", len(r.Edits))
	}
}

func TestPurgePartialFailure(t *testing.T) {
	m := &fakeModerator{
		purgeResult: moderation.PurgeResult{Deleted: 3, Scanned: 10},
		purgeErr:    boterrors.Transport("delete", context.DeadlineExceeded),
	}
	d := setup(t, m)
	r := &discordtest.Responder{}

	if err := d.Dispatch(r, discordtest.Command(moderator, "mod", "purge", nil, discordtest.Int("cantidad", 10))); err != nil {
		t.Fatalf("Dispatch() error = %v, want the partial result reported", err)
	}
	if got := r.LastText(); !strings.HasPrefix(got, "⚠️") || !strings.Contains(got, "3") {
		t.Errorf("reply = %q, want a partial warning with the count", got)
	}
}

func TestPurgeAuthor(t *testing.T) {
	m := &fakeModerator{purgeResult: moderation.PurgeResult{Deleted: 7, Scanned: 100}}
	d := setup(t, m)
	r := &discordtest.Responder{}

	msg := &discordgo.Message{ID: "M9", Author: &discordgo.User{ID: "U5"}}
	if err := d.Dispatch(r, discordtest.MessageCommand(moderator, "Purgar mensajes del autor", msg)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(m.purges) != 1 || m.purges[0].TargetID != "U5" || m.purges[0].Amount != moderation.MaxPurge {
		t.Fatalf("purges = %+v, want a full scan for U5", m.purges)
	}
	if len(r.Edits) != 1 || r.Edits[0].Components == nil || len(*r.Edits[0].Components) != 1 {
		t.Fatalf("edits = %+v, want one edit with the quick mute row", r.Edits)
	}
	row := (*r.Edits[0].Components)[0].(discordgo.ActionsRow)
	if id := row.Components[0].(discordgo.Button).CustomID; id != "quickmute-short-U5" {
		t.Errorf("first button = %q, want quickmute-short-U5", id)
	}
}

func TestBanDeniedIsReported(t *testing.T) {
	m := &fakeModerator{banErr: moderation.DenyHierarchy.Err()}
	d := setup(t, m)
	r := &discordtest.Responder{}

	target := &discordgo.User{ID: "U2", Username: "boss"}
	err := d.Dispatch(r, discordtest.Command(moderator, "mod", "ban", []*discordgo.User{target}, discordtest.User("usuario", "U2")))
	if err == nil {
		t.Fatal("Dispatch() error = nil, want the denial")
	}
	if len(m.bans) != 1 || m.bans[0].Reason != defaultReason {
		t.Errorf("bans = %+v, want one with the default reason", m.bans)
	}
	if got := r.LastText(); got != boterrors.UserMessage(err) {
		t.Errorf("reply = %q, want %q", got, boterrors.UserMessage(err))
	}
}
