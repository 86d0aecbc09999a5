// Package discord adapts the Discord gateway to the core capabilities.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
	"github.com/crewhush/crewhush/internal/guild"
	"github.com/crewhush/crewhush/internal/lobby"
)

// Bot owns the gateway session and implements core.Bot. Command handling
// lives here too: the core never sees Discord types.
type Bot struct {
	session *discordgo.Session
	reg     *lobby.Registry
	guilds  *guild.Cache
}

func Connect(token string, reg *lobby.Registry, guilds *guild.Cache) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	b := &Bot{session: session, reg: reg, guilds: guilds}
	session.AddHandler(b.onMessage)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open gateway: %w", err)
	}
	log.Info().Str("module", "adapters.discord").Msg("gateway connected")
	return b, nil
}

func (b *Bot) Close() error { return b.session.Close() }

func (b *Bot) Channel(ctx context.Context, id domain.ChannelID) (core.Channel, error) {
	ch, err := b.session.State.Channel(string(id))
	if err != nil {
		if ch, err = b.session.Channel(string(id), discordgo.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("fetch channel %s: %w", id, err)
		}
	}
	return &channel{bot: b, id: id, guildID: domain.GuildID(ch.GuildID)}, nil
}

func (b *Bot) GuildCount(ctx context.Context) (int, error) {
	return len(b.session.State.Guilds), nil
}

func (b *Bot) Guilds(ctx context.Context) ([]domain.GuildInfo, error) {
	guilds := b.session.State.Guilds
	out := make([]domain.GuildInfo, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, domain.GuildInfo{
			ID:          domain.GuildID(g.ID),
			Name:        g.Name,
			MemberCount: g.MemberCount,
		})
	}
	return out, nil
}

type channel struct {
	bot     *Bot
	id      domain.ChannelID
	guildID domain.GuildID
}

func (c *channel) ID() domain.ChannelID    { return c.id }
func (c *channel) GuildID() domain.GuildID { return c.guildID }

// Members lists the current occupants of the voice channel.
func (c *channel) Members(ctx context.Context) ([]core.Member, error) {
	g, err := c.bot.session.State.Guild(string(c.guildID))
	if err != nil {
		return nil, fmt.Errorf("guild %s not in state: %w", c.guildID, err)
	}
	var out []core.Member
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != string(c.id) {
			continue
		}
		m, err := c.bot.member(ctx, string(c.guildID), vs.UserID)
		if err != nil {
			log.Warn().Str("module", "adapters.discord").Str("user", vs.UserID).
				Err(err).Msg("could not resolve voice member")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (b *Bot) member(ctx context.Context, guildID, userID string) (core.Member, error) {
	m, err := b.session.State.Member(guildID, userID)
	if err != nil {
		if m, err = b.session.GuildMember(guildID, userID, discordgo.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("fetch member %s: %w", userID, err)
		}
	}
	return &memberHandle{session: b.session, guildID: guildID, member: m}, nil
}

// memberHandle is the weak platform reference lobbies keep per player.
type memberHandle struct {
	session *discordgo.Session
	guildID string
	member  *discordgo.Member
}

func (h *memberHandle) ID() domain.PlayerID { return domain.PlayerID(h.member.User.ID) }

func (h *memberHandle) DisplayName() string {
	if h.member.Nick != "" {
		return h.member.Nick
	}
	return h.member.User.Username
}

func (h *memberHandle) IsBot() bool { return h.member.User.Bot }

func (h *memberHandle) SetCommunicationState(ctx context.Context, mute, deaf bool, reason string) error {
	_, err := h.session.GuildMemberEdit(h.guildID, h.member.User.ID,
		&discordgo.GuildMemberParams{Mute: &mute, Deaf: &deaf},
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return err
}
