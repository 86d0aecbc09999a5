package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/adapters/discord"
	router "github.com/crewhush/crewhush/internal/adapters/http"
	"github.com/crewhush/crewhush/internal/config"
	"github.com/crewhush/crewhush/internal/guild"
	"github.com/crewhush/crewhush/internal/lobby"
	"github.com/crewhush/crewhush/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.DiscordToken == "" {
		log.Fatal().Msg("discord_token is required (config or DISCORD_TOKEN)")
	}

	var st store.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis_url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer client.Close()
		st = store.NewRedisStore(client)
	} else {
		log.Warn().Msg("no redis_url set, guild settings will not survive a restart")
		st = store.NewMemoryStore()
	}

	guilds := guild.NewCache(st, cfg.CacheTTL, cfg.SaveDebounce)
	registry := lobby.NewRegistry()

	bot, err := discord.Connect(cfg.DiscordToken, registry, guilds)
	if err != nil {
		log.Fatal().Err(err).Msg("discord connect failed")
	}

	r := router.SetupRouter(cfg, registry, bot)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("crewhush server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Running lobbies should not leave people server-muted.
	for l := range registry.All() {
		l.Stop(shutdownCtx)
	}
	if err := guilds.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("guild cache flush failed")
	}
	if err := bot.Close(); err != nil {
		log.Error().Err(err).Msg("gateway close failed")
	}
	log.Info().Msg("Server exited gracefully")
}
