package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

type recordingSink struct {
	mu     sync.Mutex
	guilds []string
	events []auditlog.Event
}

func (s *recordingSink) SendLog(_ context.Context, guildID string, ev auditlog.Event) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds = append(s.guilds, guildID)
	s.events = append(s.events, ev)
	return nil, nil
}

type fakeScheduler struct {
	err      error
	done     chan struct{}
	calls    int
	timeout  time.Duration
	deadline bool
}

func newFakeScheduler(err error) *fakeScheduler {
	return &fakeScheduler{err: err, done: make(chan struct{})}
}

func (f *fakeScheduler) StartWithRetry(ctx context.Context, attemptTimeout time.Duration) error {
	defer close(f.done)
	f.calls++
	f.timeout = attemptTimeout
	_, f.deadline = ctx.Deadline()
	return f.err
}

func (f *fakeScheduler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler recovery never ran")
	}
}

type fakeIdentity struct{ id string }

func (f *fakeIdentity) SetServiceID(id string) { f.id = id }

type fakeRegistrar struct {
	once, recurring int
}

func (r *fakeRegistrar) AddHandler(interface{}) func() {
	r.recurring++
	return func() {}
}

func (r *fakeRegistrar) AddHandlerOnce(interface{}) func() {
	r.once++
	return func() {}
}

func newListeners(sink auditlog.Sink) *listeners {
	return &listeners{Deps: Deps{Audit: sink, Status: DefaultStatus, RecoverTimeout: time.Second}}
}

func TestListenersLoad(t *testing.T) {
	r := &fakeRegistrar{}
	eh := discord.NewEventHandler(r)
	if err := eh.LoadEvents(Listeners(Deps{})...); err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}

	if r.once != 1 {
		t.Errorf("one-shot listeners = %d, want 1 (ready)", r.once)
	}
	if names := eh.Names(); len(names) == 0 || names[0] != "ready" {
		t.Errorf("Names() = %v, want ready first", names)
	}
	if r.recurring != len(eh.Names())-1 {
		t.Errorf("recurring listeners = %d, want %d", r.recurring, len(eh.Names())-1)
	}
}

func TestReadyStartsSchedulerWithIdentity(t *testing.T) {
	sched := newFakeScheduler(nil)
	id := &fakeIdentity{}
	l := newListeners(nil)
	l.Scheduler = sched
	l.Identity = id

	l.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "BOT", Username: "PancyMod"}})
	sched.wait(t)

	if id.id != "BOT" {
		t.Errorf("service ID = %q, want BOT", id.id)
	}
	if sched.calls != 1 {
		t.Errorf("scheduler starts = %d, want 1", sched.calls)
	}
	if sched.timeout != time.Second {
		t.Errorf("attempt timeout = %v, want %v", sched.timeout, time.Second)
	}
	if sched.deadline {
		t.Error("recovery context has a deadline, want retries bounded per attempt only")
	}
}

func TestReadySchedulerFailureIsNotFatal(t *testing.T) {
	sched := newFakeScheduler(errors.New("storage down"))
	l := newListeners(nil)
	l.Scheduler = sched

	l.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "BOT"}})
	sched.wait(t)
}

func TestMemberJoinAndLeave(t *testing.T) {
	sink := &recordingSink{}
	l := newListeners(sink)
	user := &discordgo.User{ID: "175928847299117063", Username: "nuevo"}

	l.onGuildMemberAdd(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{GuildID: "G1", User: user}})
	l.onGuildMemberRemove(nil, &discordgo.GuildMemberRemove{Member: &discordgo.Member{GuildID: "G1", User: user}})
	l.onGuildMemberAdd(nil, &discordgo.GuildMemberAdd{})

	if len(sink.events) != 2 {
		t.Fatalf("events = %d, want 2", len(sink.events))
	}
	if sink.events[0].Name != auditlog.EventMemberJoin || sink.events[1].Name != auditlog.EventMemberLeave {
		t.Errorf("events = %q, %q, want join then leave", sink.events[0].Name, sink.events[1].Name)
	}
	if sink.guilds[0] != "G1" || sink.events[0].TargetID != user.ID {
		t.Errorf("join = guild %q target %q", sink.guilds[0], sink.events[0].TargetID)
	}
	if got := len(sink.events[0].Fields); got != 2 {
		t.Errorf("join fields = %d, want username and account age", got)
	}
}

func TestVoiceStateUpdate(t *testing.T) {
	tests := []struct {
		name    string
		before  *discordgo.VoiceState
		channel string
		audited bool
	}{
		{"join", nil, "V1", false},
		{"leave", &discordgo.VoiceState{ChannelID: "V1"}, "", false},
		{"move", &discordgo.VoiceState{ChannelID: "V1"}, "V2", true},
		{"mute in place", &discordgo.VoiceState{ChannelID: "V1"}, "V1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			l := newListeners(sink)

			l.onVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{
				VoiceState:   &discordgo.VoiceState{GuildID: "G1", UserID: "U1", ChannelID: tt.channel},
				BeforeUpdate: tt.before,
			})

			if got := len(sink.events) == 1; got != tt.audited {
				t.Fatalf("audited = %v, want %v", got, tt.audited)
			}
			if tt.audited && sink.events[0].Name != auditlog.EventVoiceMove {
				t.Errorf("event = %q, want %q", sink.events[0].Name, auditlog.EventVoiceMove)
			}
		})
	}
}

func TestThreadUpdate(t *testing.T) {
	sink := &recordingSink{}
	l := newListeners(sink)

	before := &discordgo.Channel{ID: "T1", Name: "dudas", ThreadMetadata: &discordgo.ThreadMetadata{}}
	after := &discordgo.Channel{ID: "T1", GuildID: "G1", Name: "resuelto", ThreadMetadata: &discordgo.ThreadMetadata{Archived: true}}
	l.onThreadUpdate(nil, &discordgo.ThreadUpdate{Channel: after, BeforeUpdate: before})

	unchanged := &discordgo.Channel{ID: "T1", GuildID: "G1", Name: "resuelto", ThreadMetadata: &discordgo.ThreadMetadata{Archived: true}}
	l.onThreadUpdate(nil, &discordgo.ThreadUpdate{Channel: unchanged, BeforeUpdate: after})

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	fields := sink.events[0].Fields
	if len(fields) != 2 || fields[0].Value != "dudas → resuelto" || fields[1].Value != "💬 abierto → 📦 archivado" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestThreadState(t *testing.T) {
	tests := []struct {
		m    discordgo.ThreadMetadata
		want string
	}{
		{discordgo.ThreadMetadata{}, "💬 abierto"},
		{discordgo.ThreadMetadata{Archived: true}, "📦 archivado"},
		{discordgo.ThreadMetadata{Archived: true, Locked: true}, "🔒 bloqueado"},
	}
	for _, tt := range tests {
		if got := threadState(tt.m); got != tt.want {
			t.Errorf("threadState(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}
