package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
	"github.com/PancyStudios/PancyModGo/pkg/platform/platformtest"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type memInfractions struct {
	mu    sync.Mutex
	items []*models.Infraction
}

func (m *memInfractions) CreateInfraction(_ context.Context, inf *models.Infraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, inf)
	return nil
}

func (m *memInfractions) ListInfractions(_ context.Context, guildID, userID string) ([]*models.Infraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Infraction
	for _, inf := range m.items {
		if inf.GuildID == guildID && inf.UserID == userID {
			out = append(out, inf)
		}
	}
	return out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []auditlog.Event
}

func (s *recordingSink) SendLog(_ context.Context, _ string, ev auditlog.Event) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return &discordgo.Message{ID: "LOG"}, nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		out = append(out, ev.Name)
	}
	return out
}

type fixture struct {
	fake        *platformtest.Client
	infractions *memInfractions
	sink        *recordingSink
	engine      *Engine
}

func newFixture() *fixture {
	f := &fixture{
		fake:        newGuardFixture(),
		infractions: &memInfractions{},
		sink:        &recordingSink{},
	}
	f.engine = NewEngine(f.fake, f.infractions, f.sink, Options{
		ServiceID:       "BOT",
		SingleDeleteRPS: 1000,
		Now:             func() time.Time { return testNow },
	})
	return f
}

func message(id, author string, age time.Duration) platform.Message {
	return platform.Message{ID: id, AuthorID: author, CreatedAt: testNow.Add(-age)}
}

func TestPurgeFiltersByTarget(t *testing.T) {
	f := newFixture()
	for i := 0; i < 100; i++ {
		author := "OTHER"
		if i%5 < 2 {
			author = "U1"
		}
		f.fake.AddMessages("C1", message(fmt.Sprintf("M%03d", i), author, time.Duration(i)*time.Minute))
	}

	res, err := f.engine.Purge(context.Background(), PurgeRequest{
		GuildID:    "G1",
		ChannelID:  "C1",
		TargetID:   "U1",
		ExecutorID: "U2",
		Amount:     100,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, res.Deleted)
	assert.Equal(t, 100, res.Scanned)
	assert.Len(t, f.fake.Messages("C1"), 60)
	assert.Len(t, f.fake.Calls("bulk delete"), 1)
	for _, m := range f.fake.Messages("C1") {
		assert.NotEqual(t, "U1", m.AuthorID)
	}
	assert.Equal(t, []string{auditlog.EventPurge}, f.sink.names())
}

func TestPurgeNothingEligible(t *testing.T) {
	tests := []struct {
		name     string
		messages []platform.Message
		amount   int
	}{
		{"empty channel", nil, 50},
		{"no messages from target", []platform.Message{message("M1", "OTHER", time.Minute), message("M2", "OTHER", 2*time.Minute)}, 50},
		{"zero amount", []platform.Message{message("M1", "U1", time.Minute)}, 0},
		{"negative amount", []platform.Message{message("M1", "U1", time.Minute)}, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.fake.AddMessages("C1", tt.messages...)

			res, err := f.engine.Purge(context.Background(), PurgeRequest{ChannelID: "C1", TargetID: "U1", Amount: tt.amount})
			require.NoError(t, err)
			assert.Equal(t, 0, res.Deleted)
			assert.Empty(t, f.fake.Calls("bulk delete"))
			assert.Empty(t, f.sink.names())
		})
	}
}

func TestPurgeClampsAmount(t *testing.T) {
	f := newFixture()
	for i := 0; i < 150; i++ {
		f.fake.AddMessages("C1", message(fmt.Sprintf("M%03d", i), "U1", time.Duration(i)*time.Second))
	}

	res, err := f.engine.Purge(context.Background(), PurgeRequest{ChannelID: "C1", Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPurge, res.Scanned)
	assert.Equal(t, MaxPurge, res.Deleted)
	assert.Len(t, f.fake.Messages("C1"), 50)
}

func TestPurgeSkipsInteractionResponse(t *testing.T) {
	f := newFixture()
	reply := message("REPLY", "BOT", 0)
	reply.InteractionID = "I1"
	f.fake.AddMessages("C1", reply)
	for i := 0; i < 10; i++ {
		f.fake.AddMessages("C1", message(fmt.Sprintf("M%03d", i), "U1", time.Duration(i+1)*time.Minute))
	}

	res, err := f.engine.Purge(context.Background(), PurgeRequest{
		ChannelID: "C1",
		Amount:    5,

		ExcludeInteractionID: "I1",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 5, res.Deleted)
	require.Len(t, f.fake.Calls("bulk delete"), 1)
	assert.NotContains(t, f.fake.Calls("bulk delete")[0].Target, "REPLY")
	remaining := f.fake.Messages("C1")
	require.Len(t, remaining, 6)
	assert.Equal(t, "REPLY", remaining[0].ID)
}

func TestPurgeOldMessagesAreDeletedOneByOne(t *testing.T) {
	f := newFixture()
	f.fake.AddMessages("C1",
		message("NEW1", "U1", time.Hour),
		message("NEW2", "U1", 2*time.Hour),
		message("OLD1", "U1", 15*24*time.Hour),
		message("OLD2", "U1", 20*24*time.Hour),
		message("OLD3", "U1", 30*24*time.Hour),
	)

	res, err := f.engine.Purge(context.Background(), PurgeRequest{ChannelID: "C1", TargetID: "U1", Amount: 10})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Deleted)
	require.Len(t, f.fake.Calls("bulk delete"), 1)
	assert.Equal(t, []string{"NEW1", "NEW2"}, f.fake.Calls("bulk delete")[0].Target)
	assert.Len(t, f.fake.Calls("delete message"), 3)
	assert.Empty(t, f.fake.Messages("C1"))
}

func TestPurgeToleratesAlreadyDeleted(t *testing.T) {
	f := newFixture()
	f.fake.AddMessages("C1", message("OLD1", "U1", 15*24*time.Hour), message("OLD2", "U1", 16*24*time.Hour))
	f.fake.Errors["delete message"] = platform.ErrMessageNotFound

	res, err := f.engine.Purge(context.Background(), PurgeRequest{ChannelID: "C1", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, 2, res.Skipped)
}

func TestPurgeSurfacesForbidden(t *testing.T) {
	f := newFixture()
	f.fake.AddMessages("C1", message("M1", "U1", time.Minute), message("M2", "U1", 2*time.Minute))
	f.fake.Errors["bulk delete"] = errors.New("403 missing permissions")

	res, err := f.engine.Purge(context.Background(), PurgeRequest{ChannelID: "C1", Amount: 10})
	assert.ErrorIs(t, err, boterrors.ErrTransport)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, 2, res.Scanned)
}

func TestHandleQuickMute(t *testing.T) {
	tests := []struct {
		duration QuickMuteDuration
		want     time.Duration
	}{
		{QuickMuteShort, 30 * time.Minute},
		{QuickMuteLong, time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			f := newFixture()
			res := f.engine.HandleQuickMute(context.Background(), QuickMuteParams{
				GuildID:    "G1",
				ExecutorID: "MODERATOR",
				TargetID:   "MEMBER",
				Duration:   tt.duration,
			})

			require.NoError(t, res.Err)
			require.NotNil(t, res.Infraction)
			assert.Contains(t, res.Response, "silenciado")

			want := testNow.Add(tt.want)
			assert.Equal(t, want, *res.Infraction.ExpiresAt)
			assert.Equal(t, models.InfractionMute, res.Infraction.Type)
			assert.NotEmpty(t, res.Infraction.ID)

			calls := f.fake.Calls("mute")
			require.Len(t, calls, 1)
			assert.Equal(t, want, calls[0].Until)
			assert.Len(t, f.infractions.items, 1)
			assert.Equal(t, []string{auditlog.EventMute}, f.sink.names())
		})
	}
}

func TestHandleQuickMuteFailures(t *testing.T) {
	t.Run("platform refuses", func(t *testing.T) {
		f := newFixture()
		f.fake.Errors["mute"] = errors.New("403 missing permissions")

		res := f.engine.HandleQuickMute(context.Background(), QuickMuteParams{
			GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "MEMBER", Duration: QuickMuteShort,
		})
		assert.ErrorIs(t, res.Err, boterrors.ErrTransport)
		assert.Nil(t, res.Infraction)
		assert.NotEmpty(t, res.Response)
		assert.Empty(t, f.infractions.items)
		assert.Empty(t, f.sink.names())
	})

	t.Run("hierarchy", func(t *testing.T) {
		f := newFixture()
		res := f.engine.HandleQuickMute(context.Background(), QuickMuteParams{
			GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "ADMIN", Duration: QuickMuteLong,
		})

		var denied *boterrors.DeniedError
		assert.ErrorAs(t, res.Err, &denied)
		assert.Contains(t, res.Response, "⛔")
		assert.Empty(t, f.fake.Calls("mute"))
	})

	t.Run("unknown duration", func(t *testing.T) {
		f := newFixture()
		res := f.engine.HandleQuickMute(context.Background(), QuickMuteParams{
			GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "MEMBER", Duration: "forever",
		})
		assert.Error(t, res.Err)
		assert.NotEmpty(t, res.Response)
		assert.Empty(t, f.fake.Calls("mute"))
	})
}

func TestConcurrentBanIsRejected(t *testing.T) {
	f := newFixture()
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	f.fake.Hooks["ban"] = func() {
		once.Do(func() { close(entered) })
		<-unblock
	}

	req := BanRequest{GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "MEMBER", Reason: "spam"}
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.engine.Ban(ctx, req)
		firstErr <- err
	}()
	<-entered

	_, err := f.engine.Ban(ctx, req)
	assert.ErrorIs(t, err, boterrors.ErrDuplicateRequest)

	close(unblock)
	require.NoError(t, <-firstErr)
	assert.False(t, f.engine.Duplicates().InFlight(RequestBan, TargetKey("G1", "MEMBER")))

	inf, err := f.engine.Ban(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.InfractionBan, inf.Type)
	assert.Len(t, f.fake.Calls("ban"), 2)
}

func TestBanReleasesAfterFailure(t *testing.T) {
	f := newFixture()
	f.fake.Errors["ban"] = errors.New("500 server error")
	req := BanRequest{GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "MEMBER"}

	_, err := f.engine.Ban(context.Background(), req)
	assert.ErrorIs(t, err, boterrors.ErrTransport)

	delete(f.fake.Errors, "ban")
	_, err = f.engine.Ban(context.Background(), req)
	assert.NoError(t, err)
}

func TestKick(t *testing.T) {
	f := newFixture()

	inf, err := f.engine.Kick(context.Background(), KickRequest{GuildID: "G1", ExecutorID: "MODERATOR", TargetID: "MEMBER", Reason: "flood"})
	require.NoError(t, err)
	assert.Equal(t, models.InfractionKick, inf.Type)
	assert.Nil(t, inf.ExpiresAt)

	stored, err := f.engine.Infractions(context.Background(), "G1", "MEMBER")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, []string{auditlog.EventKick}, f.sink.names())
}

func TestRoleChanges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.engine.GrantRole(ctx, "G1", "VIP", []string{"MEMBER", "PEER", "GONE", "MEMBER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMBER", "PEER"}, res.Changed)
	assert.Equal(t, []string{"GONE"}, res.Skipped)

	m, _ := f.fake.Member("G1", "MEMBER")
	assert.True(t, m.HasRole("VIP"))

	f.fake.RemoveMember("G1", "PEER")
	res, err = f.engine.RevokeRole(ctx, "G1", "VIP", []string{"MEMBER", "PEER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMBER"}, res.Changed)
	assert.Equal(t, []string{"PEER"}, res.Skipped)

	m, _ = f.fake.Member("G1", "MEMBER")
	assert.False(t, m.HasRole("VIP"))
}

func TestRevokeRoleSurfacesTransportErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.engine.GrantRole(ctx, "G1", "VIP", []string{"MEMBER"})
	require.NoError(t, err)

	f.fake.Errors["remove role"] = errors.New("403 missing permissions")
	_, err = f.engine.RevokeRole(ctx, "G1", "VIP", []string{"MEMBER"})
	assert.ErrorIs(t, err, boterrors.ErrTransport)
}
