package lobby

import (
	"fmt"
	"iter"
	"sync"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
)

// Registry is the single source of truth for which voice channels have a
// live lobby. It is injected wherever lobbies are started or looked up;
// nothing else may cache channel-to-lobby facts across calls.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[domain.ChannelID]*Lobby
}

func NewRegistry() *Registry {
	return &Registry{lobbies: make(map[domain.ChannelID]*Lobby)}
}

// Register claims a channel for a lobby. Occupied channels are an error,
// never a silent replace.
func (r *Registry) Register(l *Lobby) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lobbies[l.voiceChannelID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrLobbyExists, l.voiceChannelID)
	}
	r.lobbies[l.voiceChannelID] = l
	return nil
}

// Find returns the lobby for a channel, or nil.
func (r *Registry) Find(id domain.ChannelID) *Lobby {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lobbies[id]
}

func (r *Registry) Remove(id domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lobbies, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// All yields a snapshot of the live lobbies. The sequence is restartable
// and detached from later registry mutations.
func (r *Registry) All() iter.Seq[*Lobby] {
	r.mu.RLock()
	snap := make([]*Lobby, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		snap = append(snap, l)
	}
	r.mu.RUnlock()

	return func(yield func(*Lobby) bool) {
		for _, l := range snap {
			if !yield(l) {
				return
			}
		}
	}
}

// Snapshots is the JSON-facing view of All.
func (r *Registry) Snapshots() []core.LobbySnapshot {
	out := make([]core.LobbySnapshot, 0, r.Count())
	for l := range r.All() {
		out = append(out, l.Snapshot())
	}
	return out
}
