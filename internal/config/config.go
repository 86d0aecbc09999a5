package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	Version      string        `mapstructure:"version"`
	DiscordToken string        `mapstructure:"discord_token"`
	RedisURL     string        `mapstructure:"redis_url"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("version", "unreleased")
	v.SetDefault("discord_token", "")
	v.SetDefault("redis_url", "")
	_ = v.BindEnv("discord_token", "DISCORD_TOKEN")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("save_debounce", "1500ms")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
