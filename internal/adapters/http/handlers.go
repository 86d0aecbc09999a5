package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
	"github.com/crewhush/crewhush/internal/lobby"
)

type Handlers struct {
	Registry *lobby.Registry
	Bot      core.Bot
	Version  string
}

func (h *Handlers) ServerInfo(c *gin.Context) {
	guilds, err := h.Bot.GuildCount(c.Request.Context())
	if err != nil {
		log.Error().Str("module", "adapters.http").Err(err).Msg("guild count failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "voice platform unavailable"})
		return
	}
	c.JSON(http.StatusOK, core.ServerInfo{
		Version:           h.Version,
		GuildsSupported:   guilds,
		LobbiesInProgress: h.Registry.Count(),
	})
}

func (h *Handlers) Guilds(c *gin.Context) {
	guilds, err := h.Bot.Guilds(c.Request.Context())
	if err != nil {
		log.Error().Str("module", "adapters.http").Err(err).Msg("guild list failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "voice platform unavailable"})
		return
	}
	c.JSON(http.StatusOK, guilds)
}

func (h *Handlers) Lobbies(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.Snapshots())
}

// findLobby resolves the path channel id, answering 404 with the violated
// precondition spelled out.
func (h *Handlers) findLobby(c *gin.Context) *lobby.Lobby {
	id := domain.ChannelID(c.Param("voiceChannelId"))
	l := h.Registry.Find(id)
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no lobby exists for that voice channel"})
		return nil
	}
	return l
}

func (h *Handlers) Lobby(c *gin.Context) {
	l := h.findLobby(c)
	if l == nil {
		return
	}
	c.JSON(http.StatusOK, l.Snapshot())
}

func (h *Handlers) KillPlayer(c *gin.Context) {
	l := h.findLobby(c)
	if l == nil {
		return
	}
	p := l.Player(domain.PlayerID(c.Param("playerId")))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such player exists for that lobby"})
		return
	}

	killed, err := l.Kill(c.Request.Context(), p.Member())
	if err != nil {
		// The record is marked dying either way; only the platform command
		// failed. Report the snapshot we have.
		log.Warn().Str("module", "adapters.http").Str("channel", string(l.VoiceChannelID())).
			Str("player", string(p.ID())).Err(err).Msg("kill command failed")
	}
	c.JSON(http.StatusOK, killed.Snapshot())
}
