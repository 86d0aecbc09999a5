package lobby

import (
	"context"
	"sync"

	"github.com/crewhush/crewhush/internal/core"
	"github.com/crewhush/crewhush/internal/domain"
)

// commCall is one recorded SetCommunicationState invocation.
type commCall struct {
	Mute   bool
	Deaf   bool
	Reason string
}

// fakeMember records every communication-state command it receives.
// Set fail to make commands rejected.
type fakeMember struct {
	id   domain.PlayerID
	name string
	bot  bool

	mu    sync.Mutex
	calls []commCall
	fail  error
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: domain.PlayerID(id), name: "member-" + id}
}

func (m *fakeMember) ID() domain.PlayerID { return m.id }
func (m *fakeMember) DisplayName() string { return m.name }
func (m *fakeMember) IsBot() bool         { return m.bot }

func (m *fakeMember) SetCommunicationState(ctx context.Context, mute, deaf bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.calls = append(m.calls, commCall{Mute: mute, Deaf: deaf, Reason: reason})
	return nil
}

func (m *fakeMember) failWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *fakeMember) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *fakeMember) lastCall() (commCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return commCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// fakeChannel is a voice channel with a fixed occupant list.
type fakeChannel struct {
	id      domain.ChannelID
	guildID domain.GuildID
	members []core.Member
	err     error
}

func newFakeChannel(id string, members ...core.Member) *fakeChannel {
	return &fakeChannel{id: domain.ChannelID(id), guildID: "guild-1", members: members}
}

func (c *fakeChannel) ID() domain.ChannelID    { return c.id }
func (c *fakeChannel) GuildID() domain.GuildID { return c.guildID }

func (c *fakeChannel) Members(ctx context.Context) ([]core.Member, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.members, nil
}
