package lobby

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
)

// Player tracks one member's liveness and committed mute/deaf state for the
// lifetime of a lobby. The member handle belongs to the voice platform; the
// player only issues commands through it.
type Player struct {
	member core.Member

	mu     sync.Mutex
	status domain.PlayerStatus
	comm   domain.CommState
	// synced reports whether comm reflects a state we actually applied.
	// Until the first successful command the platform state is unknown.
	synced bool
}

func newPlayer(member core.Member, status domain.PlayerStatus) *Player {
	return &Player{member: member, status: status}
}

func (p *Player) ID() domain.PlayerID { return p.member.ID() }
func (p *Player) Name() string        { return p.member.DisplayName() }
func (p *Player) Member() core.Member { return p.member }

func (p *Player) Status() domain.PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Kill marks the player dying. Killing an already-dying player is fine.
func (p *Player) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = domain.StatusDying
}

// Revive is the only path back to living.
func (p *Player) Revive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = domain.StatusLiving
}

// SetForPhase applies the communication state a phase demands of this player.
// Safe to re-apply; the order across players of a lobby carries no meaning.
func (p *Player) SetForPhase(ctx context.Context, phase domain.Phase) error {
	switch phase {
	case domain.PhaseIntermission:
		return p.setForIntermission(ctx)
	case domain.PhaseWorking:
		return p.setForWorking(ctx)
	case domain.PhaseMeeting:
		return p.setForMeeting(ctx)
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidPhase, phase)
	}
}

// Intermission: everyone talks.
func (p *Player) setForIntermission(ctx context.Context) error {
	return p.SetCommState(ctx, false, false, "Intermission")
}

// Working: the living are silenced and deafened; the dead chat freely.
func (p *Player) setForWorking(ctx context.Context) error {
	if p.Status() == domain.StatusLiving {
		return p.SetCommState(ctx, true, true, "Working")
	}
	return p.SetCommState(ctx, false, false, "Working")
}

// Meeting: the living talk; the dead listen muted.
func (p *Player) setForMeeting(ctx context.Context) error {
	if p.Status() == domain.StatusLiving {
		return p.SetCommState(ctx, false, false, "Meeting")
	}
	return p.SetCommState(ctx, true, false, "Meeting")
}

// SetCommState issues the mute/deaf command to the platform, skipping the
// round-trip when the committed state already matches.
func (p *Player) SetCommState(ctx context.Context, mute, deaf bool, reason string) error {
	p.mu.Lock()
	if p.synced && p.comm.Mute == mute && p.comm.Deaf == deaf {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.applyCommState(ctx, mute, deaf, reason)
}

// ForceCommState always issues the command, even when the committed state
// already matches. The platform state can drift behind our back (a server
// admin muting someone mid-game), so the final restore must not trust it.
func (p *Player) ForceCommState(ctx context.Context, mute, deaf bool, reason string) error {
	return p.applyCommState(ctx, mute, deaf, reason)
}

func (p *Player) applyCommState(ctx context.Context, mute, deaf bool, reason string) error {
	if err := p.member.SetCommunicationState(ctx, mute, deaf, reason); err != nil {
		return fmt.Errorf("set comm state for %s: %w", p.ID(), err)
	}

	p.mu.Lock()
	p.comm = domain.CommState{Mute: mute, Deaf: deaf}
	p.synced = true
	p.mu.Unlock()
	return nil
}

func (p *Player) Snapshot() core.PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.PlayerSnapshot{
		ID:     p.member.ID(),
		Name:   p.member.DisplayName(),
		Status: p.status,
		Mute:   p.comm.Mute,
		Deaf:   p.comm.Deaf,
	}
}
