package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct{ ready bool }

func (b fakeBot) IsReady() bool          { return b.ready }
func (b fakeBot) GuildCount() int        { return 3 }
func (b fakeBot) Latency() time.Duration { return 42 * time.Millisecond }
func (b fakeBot) Uptime() time.Duration  { return time.Hour }
func (b fakeBot) UserID() string         { return "BOT" }

type fakeStorage struct{ err error }

func (s fakeStorage) Ping(context.Context) (time.Duration, error) { return 5 * time.Millisecond, s.err }

type fakeGrants struct {
	grants []*models.TemporaryRole
	err    error
}

func (g fakeGrants) Active(context.Context) ([]*models.TemporaryRole, error) { return g.grants, g.err }

func newTestServer(t *testing.T, api *API, opts ServerOptions) *Server {
	t.Helper()
	s, err := NewServer(opts)
	require.NoError(t, err)
	if api.Stats == nil {
		api.Stats = func() sysinfo.Snapshot { return sysinfo.Snapshot{GoVersion: "go-test"} }
	}
	SetupAPIRoutes(s, api)
	return s
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &API{}, ServerOptions{})

	rec := get(s, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, &API{Bot: fakeBot{ready: true}, Storage: fakeStorage{}}, ServerOptions{})

	body := decode(t, get(s, "/api/status"))
	db := body["database"].(map[string]interface{})
	assert.Equal(t, true, db["isOnline"])
	assert.Equal(t, true, body["bot"].(map[string]interface{})["isOnline"])
	assert.Equal(t, "go-test", body["system"].(map[string]interface{})["goVersion"])
}

func TestStatusStorageDown(t *testing.T) {
	s := newTestServer(t, &API{Storage: fakeStorage{err: errors.New("down")}}, ServerOptions{})

	body := decode(t, get(s, "/api/status"))
	db := body["database"].(map[string]interface{})
	assert.Equal(t, false, db["isOnline"])
	assert.Equal(t, false, body["bot"].(map[string]interface{})["isOnline"])
}

func TestBotInfo(t *testing.T) {
	offline := newTestServer(t, &API{Bot: fakeBot{}}, ServerOptions{})
	assert.Equal(t, http.StatusServiceUnavailable, get(offline, "/api/bot").Code)

	online := newTestServer(t, &API{Bot: fakeBot{ready: true}}, ServerOptions{})
	rec := get(online, "/api/bot")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "BOT", body["id"])
	assert.Equal(t, float64(3), body["guilds"])
	assert.Equal(t, float64(42), body["latencyMs"])
}

func TestTempRoles(t *testing.T) {
	grants := fakeGrants{grants: []*models.TemporaryRole{
		{RequestMessageID: "R1", GuildID: "G1"},
		{RequestMessageID: "R2", GuildID: "G2"},
	}}
	s := newTestServer(t, &API{Grants: grants}, ServerOptions{})

	all := decode(t, get(s, "/api/temproles"))
	assert.Equal(t, float64(2), all["count"])

	filtered := decode(t, get(s, "/api/temproles?guildId=G2"))
	assert.Equal(t, float64(1), filtered["count"])

	none := decode(t, get(s, "/api/temproles?guildId=G9"))
	assert.Equal(t, float64(0), none["count"])
	assert.NotNil(t, none["grants"])
}

func TestTempRolesStorageError(t *testing.T) {
	s := newTestServer(t, &API{Grants: fakeGrants{err: errors.New("down")}}, ServerOptions{})
	assert.Equal(t, http.StatusServiceUnavailable, get(s, "/api/temproles").Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, &API{}, ServerOptions{})

	rec := get(s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNotFoundAndMethod(t *testing.T) {
	s := newTestServer(t, &API{}, ServerOptions{})

	assert.Equal(t, http.StatusNotFound, get(s, "/nope").Code)

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &API{}, ServerOptions{RequestsPerMinute: 2})

	assert.Equal(t, http.StatusOK, get(s, "/api/health").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(s, "/api/health").Code)
}

func TestAllowedHosts(t *testing.T) {
	s := newTestServer(t, &API{}, ServerOptions{AllowedHosts: `^(.+\.)?pancy\.dev`})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "api.pancy.dev"
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusForbidden, get(s, "/api/health").Code, "httptest host example.com is rejected")
}

func TestInvalidAllowedHosts(t *testing.T) {
	_, err := NewServer(ServerOptions{AllowedHosts: "("})
	assert.Error(t, err)
}
