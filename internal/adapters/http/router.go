// Package http exposes the lobby and server state as a JSON API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/crewhush/crewhush/internal/config"
	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/lobby"
)

func SetupRouter(cfg *config.Config, reg *lobby.Registry, bot core.Bot) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handlers{Registry: reg, Bot: bot, Version: cfg.Version}

	r.GET("/", h.ServerInfo)
	r.GET("/server", h.ServerInfo)
	r.GET("/server/guilds", h.Guilds)
	r.GET("/server/lobbies", h.Lobbies)
	r.GET("/lobby/:voiceChannelId", h.Lobby)
	r.POST("/lobby/:voiceChannelId/players/:playerId/kill", h.KillPlayer)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "no such API endpoint"})
	})

	return r
}
