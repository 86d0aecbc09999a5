// Package lobby coordinates the mute/deaf state of a voice channel's
// members with the phase of the game being played in it.
package lobby

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
)

// Lobby owns the phase state machine and the roster for one voice channel.
// A lobby exists from Start until Stop; members who leave the channel keep
// their record so a rejoin lands them back in the right state.
type Lobby struct {
	voiceChannelID domain.ChannelID
	textChannelID  domain.ChannelID
	channel        core.Channel
	reg            *Registry

	mu      sync.RWMutex
	phase   domain.Phase
	players map[domain.PlayerID]*Player
	// room is an opaque descriptor supplied by game-integration callers.
	// The lobby stores and reports it, nothing more.
	room any
}

// UpdateResult is the outcome of one player's communication-state update.
type UpdateResult struct {
	Player *Player
	Err    error
}

// FanoutResult collects per-player outcomes of a phase fan-out.
// Individual failures never abort siblings or roll back the phase.
type FanoutResult []UpdateResult

// Err combines every per-player failure, or nil when all updates landed.
func (r FanoutResult) Err() error {
	var errs []error
	for _, u := range r {
		errs = append(errs, u.Err)
	}
	return multierr.Combine(errs...)
}

// Failed returns only the updates that did not land.
func (r FanoutResult) Failed() []UpdateResult {
	var out []UpdateResult
	for _, u := range r {
		if u.Err != nil {
			out = append(out, u)
		}
	}
	return out
}

// Start creates a lobby for a channel, seeds the roster from its current
// occupants, and registers it. Starting a second lobby on an occupied
// channel fails without touching the existing one.
func Start(ctx context.Context, reg *Registry, channel core.Channel, textChannelID domain.ChannelID) (*Lobby, error) {
	l := &Lobby{
		voiceChannelID: channel.ID(),
		textChannelID:  textChannelID,
		channel:        channel,
		reg:            reg,
		phase:          domain.PhaseIntermission,
		players:        make(map[domain.PlayerID]*Player),
	}
	if err := reg.Register(l); err != nil {
		return nil, err
	}

	members, err := channel.Members(ctx)
	if err != nil {
		reg.Remove(l.voiceChannelID)
		return nil, fmt.Errorf("list members of %s: %w", channel.ID(), err)
	}

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Go(func() {
			if _, err := l.Connect(ctx, m); err != nil {
				log.Warn().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).
					Str("player", string(m.ID())).Err(err).Msg("initial connect failed")
			}
		})
	}
	wg.Wait()

	log.Info().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).Msg("created")
	return l, nil
}

func (l *Lobby) VoiceChannelID() domain.ChannelID { return l.voiceChannelID }
func (l *Lobby) TextChannelID() domain.ChannelID  { return l.textChannelID }

// Channel is the underlying voice channel handle.
func (l *Lobby) Channel() core.Channel { return l.channel }

func (l *Lobby) Room() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.room
}

func (l *Lobby) SetRoom(room any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.room = room
}

func (l *Lobby) Phase() domain.Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// Connect registers a member as a player, or re-syncs an existing record to
// the current phase. Bot accounts are ignored and get no record. An optional
// initial status covers members first seen through a kill event.
func (l *Lobby) Connect(ctx context.Context, member core.Member, status ...domain.PlayerStatus) (*Player, error) {
	if member.IsBot() {
		return nil, nil
	}
	initial := domain.StatusLiving
	if len(status) > 0 {
		initial = status[0]
	}

	l.mu.Lock()
	p, ok := l.players[member.ID()]
	if !ok {
		p = newPlayer(member, initial)
		l.players[member.ID()] = p
	}
	phase := l.phase
	l.mu.Unlock()

	err := p.SetForPhase(ctx, phase)
	log.Info().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).
		Str("player", string(p.ID())).Bool("rejoin", ok).Msg("connected player")
	return p, err
}

// Kill marks a member dying and re-applies the current phase to them. A
// member with no record is connected already dying; there is no window in
// which they are observable as living.
func (l *Lobby) Kill(ctx context.Context, member core.Member) (*Player, error) {
	l.mu.Lock()
	p, ok := l.players[member.ID()]
	l.mu.Unlock()
	if !ok {
		return l.Connect(ctx, member, domain.StatusDying)
	}
	p.Kill()
	return p, p.SetForPhase(ctx, l.Phase())
}

// Revive restores a player to living. A member with no record is ignored;
// reviving never fabricates a record.
func (l *Lobby) Revive(ctx context.Context, member core.Member) (*Player, error) {
	l.mu.RLock()
	p := l.players[member.ID()]
	l.mu.RUnlock()
	if p == nil {
		return nil, nil
	}
	p.Revive()
	return p, p.SetForPhase(ctx, l.Phase())
}

// Player returns the record for an id, or nil.
func (l *Lobby) Player(id domain.PlayerID) *Player {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.players[id]
}

// Players returns the current roster, in no particular order.
func (l *Lobby) Players() []*Player {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Player, 0, len(l.players))
	for _, p := range l.players {
		out = append(out, p)
	}
	return out
}

// Transition moves the lobby to a new phase. Every player's update runs
// concurrently and unordered; the phase advances once all have settled,
// even if some failed. The caller gets the per-player outcomes and decides
// whether a retry is worth it.
func (l *Lobby) Transition(ctx context.Context, target domain.Phase) (FanoutResult, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPhase, target)
	}
	l.mu.RLock()
	current := l.phase
	l.mu.RUnlock()
	if current == target {
		return nil, fmt.Errorf("%w: %s", domain.ErrSamePhase, target)
	}

	log.Info().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).
		Str("from", string(current)).Str("to", string(target)).Msg("transitioning")

	res := fanout(l.Players(), func(p *Player) error {
		return p.SetForPhase(ctx, target)
	})

	l.mu.Lock()
	l.phase = target
	l.mu.Unlock()

	if err := res.Err(); err != nil {
		log.Warn().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).
			Str("phase", string(target)).Err(err).Msg("some players did not transition")
	}
	return res, nil
}

// Stop deregisters the lobby and clears the mute/deaf override for every
// player, whatever their status. This is the only path that restores normal
// voice behavior after a game.
func (l *Lobby) Stop(ctx context.Context) FanoutResult {
	l.reg.Remove(l.voiceChannelID)

	res := fanout(l.Players(), func(p *Player) error {
		return p.ForceCommState(ctx, false, false, "Lobby stopped")
	})
	if err := res.Err(); err != nil {
		log.Warn().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).
			Err(err).Msg("some players were not restored")
	}

	log.Info().Str("module", "lobby").Str("channel", string(l.voiceChannelID)).Msg("destroyed")
	return res
}

func (l *Lobby) Snapshot() core.LobbySnapshot {
	players := l.Players()
	snap := core.LobbySnapshot{
		VoiceChannelID: l.voiceChannelID,
		TextChannelID:  l.textChannelID,
		Phase:          l.Phase(),
		Room:           l.Room(),
		Players:        make([]core.PlayerSnapshot, 0, len(players)),
	}
	for _, p := range players {
		snap.Players = append(snap.Players, p.Snapshot())
	}
	return snap
}

// fanout runs one update per player concurrently and waits for all of them.
func fanout(players []*Player, apply func(*Player) error) FanoutResult {
	res := make(FanoutResult, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Go(func() {
			res[i] = UpdateResult{Player: p, Err: apply(p)}
		})
	}
	wg.Wait()
	return res
}
