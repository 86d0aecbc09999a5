package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
	"github.com/crewhush/crewhush/internal/guild"
	"github.com/crewhush/crewhush/internal/lobby"
)

// onMessage routes prefixed guild messages to lobby commands. The prefix
// comes from the guild's cached config, so changes apply on the next message.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	ctx := context.Background()

	cfg, err := b.guilds.Load(ctx, m.GuildID)
	if err != nil {
		log.Error().Str("module", "adapters.discord").Str("guild", m.GuildID).
			Err(err).Msg("load guild config failed")
		return
	}

	rest, ok := stripPrefix(m.Content, cfg.CommandPrefixes())
	if !ok {
		return
	}
	args := strings.Fields(rest)
	if len(args) == 0 {
		return
	}

	switch strings.ToLower(args[0]) {
	case "start":
		b.cmdStart(ctx, m)
	case "stop":
		b.cmdStop(ctx, m)
	case "intermission", "work", "working", "meeting", "meet":
		b.cmdTransition(ctx, m, args[0])
	case "kill":
		b.cmdMark(ctx, m, true)
	case "revive":
		b.cmdMark(ctx, m, false)
	case "prefix":
		b.cmdPrefix(ctx, m, cfg, args[1:])
	}
}

// stripPrefix matches the message against the guild's prefix alternatives.
func stripPrefix(content string, prefixes []string) (string, bool) {
	lower := strings.ToLower(content)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p+" ") {
			return content[len(p)+1:], true
		}
	}
	return "", false
}

func (b *Bot) reply(m *discordgo.MessageCreate, text string) {
	if _, err := b.session.ChannelMessageSend(m.ChannelID, text); err != nil {
		log.Warn().Str("module", "adapters.discord").Err(err).Msg("reply failed")
	}
}

// authorVoiceChannel finds the voice channel the command author is sitting in.
func (b *Bot) authorVoiceChannel(ctx context.Context, m *discordgo.MessageCreate) (core.Channel, error) {
	g, err := b.session.State.Guild(m.GuildID)
	if err != nil {
		return nil, err
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == m.Author.ID && vs.ChannelID != "" {
			return b.Channel(ctx, domain.ChannelID(vs.ChannelID))
		}
	}
	return nil, errors.New("you need to be in a voice channel for that")
}

func (b *Bot) cmdStart(ctx context.Context, m *discordgo.MessageCreate) {
	ch, err := b.authorVoiceChannel(ctx, m)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	if _, err := lobby.Start(ctx, b.reg, ch, domain.ChannelID(m.ChannelID)); err != nil {
		if errors.Is(err, domain.ErrLobbyExists) {
			b.reply(m, "There's already a lobby in that channel.")
			return
		}
		b.reply(m, "Couldn't start the lobby: "+err.Error())
		return
	}
	b.reply(m, "Lobby started. Everyone in the channel is in.")
}

func (b *Bot) cmdStop(ctx context.Context, m *discordgo.MessageCreate) {
	l, err := b.findAuthorLobby(ctx, m)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	res := l.Stop(ctx)
	if failed := res.Failed(); len(failed) > 0 {
		b.reply(m, fmt.Sprintf("Lobby stopped, but %d player(s) may still be muted.", len(failed)))
		return
	}
	b.reply(m, "Lobby stopped. Talk freely!")
}

func (b *Bot) cmdTransition(ctx context.Context, m *discordgo.MessageCreate, name string) {
	phase, err := domain.ParsePhase(canonicalPhase(name))
	if err != nil {
		b.reply(m, "That's not a phase I know.")
		return
	}
	l, err := b.findAuthorLobby(ctx, m)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	res, err := l.Transition(ctx, phase)
	if err != nil {
		if errors.Is(err, domain.ErrSamePhase) {
			b.reply(m, fmt.Sprintf("The lobby is already in %s.", phase))
			return
		}
		b.reply(m, err.Error())
		return
	}
	if failed := res.Failed(); len(failed) > 0 {
		b.reply(m, fmt.Sprintf("Now in %s, but %d player(s) didn't update.", phase, len(failed)))
		return
	}
	b.reply(m, fmt.Sprintf("Now in %s.", phase))
}

func canonicalPhase(name string) string {
	switch strings.ToLower(name) {
	case "work":
		return string(domain.PhaseWorking)
	case "meet":
		return string(domain.PhaseMeeting)
	default:
		return name
	}
}

func (b *Bot) cmdMark(ctx context.Context, m *discordgo.MessageCreate, kill bool) {
	l, err := b.findAuthorLobby(ctx, m)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	if len(m.Mentions) == 0 {
		b.reply(m, "Mention the player(s) you mean.")
		return
	}
	for _, u := range m.Mentions {
		member, err := b.member(ctx, m.GuildID, u.ID)
		if err != nil {
			b.reply(m, "I can't find "+u.Username+" in this guild.")
			continue
		}
		if kill {
			_, err = l.Kill(ctx, member)
		} else {
			_, err = l.Revive(ctx, member)
		}
		if err != nil {
			log.Warn().Str("module", "adapters.discord").Str("player", u.ID).
				Err(err).Msg("mark command failed")
		}
	}
}

func (b *Bot) cmdPrefix(ctx context.Context, m *discordgo.MessageCreate, cfg *guild.Config, args []string) {
	if len(args) == 0 {
		value, err := cfg.Get(guild.SettingPrefix)
		if err != nil {
			b.reply(m, err.Error())
			return
		}
		b.reply(m, fmt.Sprintf("Current prefix: `%v`", value))
		return
	}
	value, err := cfg.Set(guild.SettingPrefix, strings.Join(args, " "))
	if err != nil {
		if errors.Is(err, guild.ErrEmptyPrefix) {
			b.reply(m, "I can't use an empty prefix.")
			return
		}
		b.reply(m, err.Error())
		return
	}
	b.reply(m, fmt.Sprintf("Prefix updated: `%v`", value))
}

func (b *Bot) findAuthorLobby(ctx context.Context, m *discordgo.MessageCreate) (*lobby.Lobby, error) {
	ch, err := b.authorVoiceChannel(ctx, m)
	if err != nil {
		return nil, err
	}
	l := b.reg.Find(ch.ID())
	if l == nil {
		return nil, errors.New("there's no lobby in your voice channel")
	}
	return l, nil
}
