package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhush/crewhush/internal/config"
	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
	"github.com/crewhush/crewhush/internal/lobby"
)

type fakeBot struct {
	guilds []domain.GuildInfo
}

func (b *fakeBot) Channel(ctx context.Context, id domain.ChannelID) (core.Channel, error) {
	return nil, nil
}
func (b *fakeBot) GuildCount(ctx context.Context) (int, error) { return len(b.guilds), nil }
func (b *fakeBot) Guilds(ctx context.Context) ([]domain.GuildInfo, error) {
	return b.guilds, nil
}

type fakeMember struct {
	id  domain.PlayerID
	bot bool
}

func (m *fakeMember) ID() domain.PlayerID { return m.id }
func (m *fakeMember) DisplayName() string { return string(m.id) }
func (m *fakeMember) IsBot() bool         { return m.bot }
func (m *fakeMember) SetCommunicationState(ctx context.Context, mute, deaf bool, reason string) error {
	return nil
}

type fakeChannel struct {
	id      domain.ChannelID
	members []core.Member
}

func (c *fakeChannel) ID() domain.ChannelID    { return c.id }
func (c *fakeChannel) GuildID() domain.GuildID { return "guild-1" }
func (c *fakeChannel) Members(ctx context.Context) ([]core.Member, error) {
	return c.members, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *lobby.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := lobby.NewRegistry()
	bot := &fakeBot{guilds: []domain.GuildInfo{{ID: "guild-1", Name: "Crew", MemberCount: 7}}}
	cfg := &config.Config{Mode: "test", Version: "1.2.3"}
	return SetupRouter(cfg, reg, bot), reg
}

func startLobby(t *testing.T, reg *lobby.Registry, channelID string, members ...core.Member) *lobby.Lobby {
	t.Helper()
	l, err := lobby.Start(context.Background(), reg, &fakeChannel{id: domain.ChannelID(channelID), members: members}, "tc1")
	require.NoError(t, err)
	return l
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)
	return w
}

func TestServerInfo(t *testing.T) {
	t.Parallel()
	r, reg := newTestRouter(t)
	startLobby(t, reg, "vc1", &fakeMember{id: "alice"})

	for _, path := range []string{"/", "/server"} {
		w := doRequest(t, r, http.MethodGet, path)
		require.Equal(t, http.StatusOK, w.Code, path)

		var info core.ServerInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, "1.2.3", info.Version)
		assert.Equal(t, 1, info.GuildsSupported)
		assert.Equal(t, 1, info.LobbiesInProgress)
	}
}

func TestGuilds(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/server/guilds")
	require.Equal(t, http.StatusOK, w.Code)

	var guilds []domain.GuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &guilds))
	require.Len(t, guilds, 1)
	assert.Equal(t, "Crew", guilds[0].Name)
}

func TestLobbies(t *testing.T) {
	t.Parallel()
	r, reg := newTestRouter(t)
	startLobby(t, reg, "vc1")
	startLobby(t, reg, "vc2")

	w := doRequest(t, r, http.MethodGet, "/server/lobbies")
	require.Equal(t, http.StatusOK, w.Code)

	var lobbies []core.LobbySnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lobbies))
	assert.Len(t, lobbies, 2)
}

func TestLobbyByChannel(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		r, reg := newTestRouter(t)
		startLobby(t, reg, "vc1", &fakeMember{id: "alice"})

		w := doRequest(t, r, http.MethodGet, "/lobby/vc1")
		require.Equal(t, http.StatusOK, w.Code)

		var snap core.LobbySnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, domain.ChannelID("vc1"), snap.VoiceChannelID)
		assert.Equal(t, domain.PhaseIntermission, snap.Phase)
		require.Len(t, snap.Players, 1)
	})

	t.Run("absent channel is a 404, not an error", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestRouter(t)
		w := doRequest(t, r, http.MethodGet, "/lobby/nowhere")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "no lobby exists")
	})
}

func TestKillPlayer(t *testing.T) {
	t.Parallel()

	t.Run("marks the player dying", func(t *testing.T) {
		t.Parallel()
		r, reg := newTestRouter(t)
		startLobby(t, reg, "vc1", &fakeMember{id: "alice"})

		w := doRequest(t, r, http.MethodPost, "/lobby/vc1/players/alice/kill")
		require.Equal(t, http.StatusOK, w.Code)

		var snap core.PlayerSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, domain.PlayerID("alice"), snap.ID)
		assert.Equal(t, domain.StatusDying, snap.Status)
	})

	t.Run("unknown player is a 404", func(t *testing.T) {
		t.Parallel()
		r, reg := newTestRouter(t)
		startLobby(t, reg, "vc1")

		w := doRequest(t, r, http.MethodPost, "/lobby/vc1/players/ghost/kill")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "no such player")
	})

	t.Run("unknown lobby is a 404", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestRouter(t)
		w := doRequest(t, r, http.MethodPost, "/lobby/nowhere/players/alice/kill")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)
	w := doRequest(t, r, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no such API endpoint")
}
