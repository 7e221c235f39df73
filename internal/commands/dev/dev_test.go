package dev

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/discord/discordtest"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

type fakeTimers struct {
	armed  int
	grants []*models.TemporaryRole
}

func (f fakeTimers) Armed() int { return f.armed }

func (f fakeTimers) Active(context.Context) ([]*models.TemporaryRole, error) {
	return f.grants, nil
}

var admin = discordtest.Invoker{UserID: "ADMIN", Permissions: discordgo.PermissionAdministrator}

func dispatch(t *testing.T, d Deps, i *discordgo.InteractionCreate) *discordtest.Responder {
	t.Helper()
	reg := discord.NewRegistry()
	if err := Register(reg, d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r := &discordtest.Responder{}
	if err := discord.NewDispatcher(reg, nil, nil).Dispatch(r, i); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	return r
}

func TestRegisterIsDevOnly(t *testing.T) {
	reg := discord.NewRegistry()
	if err := Register(reg, Deps{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := len(reg.ApplicationCommands()); got != 0 {
		t.Errorf("ApplicationCommands() = %d, want 0", got)
	}
	if got := len(reg.DevCommands()); got != 1 {
		t.Errorf("DevCommands() = %d, want 1", got)
	}
}

func TestTimersEmbed(t *testing.T) {
	now := time.Now()
	grants := []*models.TemporaryRole{
		{RequestMessageID: "LATE", ExpiresAt: now.Add(2 * time.Hour)},
		{RequestMessageID: "SOON", ExpiresAt: now.Add(time.Minute)},
		{RequestMessageID: "PERM", Permanent: true},
	}

	e := timersEmbed(2, grants)
	want := []string{"2", "3", "1"}
	for i, w := range want {
		if got := e.Fields[i].Value; got != w {
			t.Errorf("field %s = %q, want %q", e.Fields[i].Name, got, w)
		}
	}
	if next := e.Fields[3].Value; !strings.Contains(next, "SOON") {
		t.Errorf("next expiry = %q, want SOON", next)
	}

	if next := timersEmbed(0, nil).Fields[3].Value; next != "Ninguno" {
		t.Errorf("next expiry without grants = %q, want Ninguno", next)
	}
}

func TestTimersCommand(t *testing.T) {
	d := Deps{Timers: fakeTimers{armed: 1, grants: []*models.TemporaryRole{{RequestMessageID: "R1", ExpiresAt: time.Now().Add(time.Hour)}}}}
	r := dispatch(t, d, discordtest.Command(admin, "dev", "timers", nil))

	if len(r.Edits) == 0 || r.Edits[len(r.Edits)-1].Embeds == nil {
		t.Fatal("no embed edit")
	}
	if title := (*r.Edits[len(r.Edits)-1].Embeds)[0].Title; title != "⏱️ Temporizadores" {
		t.Errorf("title = %q", title)
	}
}

func TestPanicsCommand(t *testing.T) {
	tests := []struct {
		name   string
		panics func() int64
		want   string
	}{
		{"counted", func() int64 { return 3 }, "🧯 Panics recuperados: 3"},
		{"unavailable", nil, "❌ El manejador de errores no está disponible."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := dispatch(t, Deps{Panics: tt.panics}, discordtest.Command(admin, "dev", "panics", nil))
			if got := r.LastText(); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDevRequiresAdministrator(t *testing.T) {
	reg := discord.NewRegistry()
	if err := Register(reg, Deps{Panics: func() int64 { return 0 }}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r := &discordtest.Responder{}
	member := discordtest.Invoker{UserID: "U1", Permissions: discordgo.PermissionManageRoles}
	if err := discord.NewDispatcher(reg, nil, nil).Dispatch(r, discordtest.Command(member, "dev", "panics", nil)); err == nil {
		t.Fatal("Dispatch() error = nil, want a denial")
	}
	if got := r.LastText(); strings.Contains(got, "Panics recuperados") {
		t.Errorf("reply = %q, want a permission error", got)
	}
}
