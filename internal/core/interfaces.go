package core

import (
	"context"

	"github.com/crewhush/crewhush/internal/domain"
)

// Bot abstracts the voice platform connection.
// Owned by the adapter; the core never opens or closes it.
type Bot interface {
	Channel(ctx context.Context, id domain.ChannelID) (Channel, error)
	GuildCount(ctx context.Context) (int, error)
	Guilds(ctx context.Context) ([]domain.GuildInfo, error)
}

// Channel is one voice channel the bot can see.
type Channel interface {
	ID() domain.ChannelID
	GuildID() domain.GuildID
	Members(ctx context.Context) ([]Member, error)
}

// Member is the platform-side handle for one human (or bot) account.
// Lobbies keep these as lookups and command targets, never as owned state.
type Member interface {
	ID() domain.PlayerID
	DisplayName() string
	IsBot() bool
	SetCommunicationState(ctx context.Context, mute, deaf bool, reason string) error
}

// PlayerSnapshot is a read-only view for APIs (no platform fields).
type PlayerSnapshot struct {
	ID     domain.PlayerID     `json:"id"`
	Name   string              `json:"name"`
	Status domain.PlayerStatus `json:"status"`
	Mute   bool                `json:"mute"`
	Deaf   bool                `json:"deaf"`
}

type LobbySnapshot struct {
	VoiceChannelID domain.ChannelID `json:"voiceChannelId"`
	TextChannelID  domain.ChannelID `json:"textChannelId,omitempty"`
	Phase          domain.Phase     `json:"phase"`
	Room           any              `json:"room,omitempty"`
	Players        []PlayerSnapshot `json:"players"`
}

type ServerInfo struct {
	Version           string `json:"version"`
	GuildsSupported   int    `json:"guildsSupported"`
	LobbiesInProgress int    `json:"lobbiesInProgress"`
}
