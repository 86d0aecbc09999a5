package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewhush/crewhush/internal/domain"
)

func TestStripPrefix(t *testing.T) {
	t.Parallel()
	prefixes := []string{"!sau", "!s"}

	rest, ok := stripPrefix("!sau start", prefixes)
	assert.True(t, ok)
	assert.Equal(t, "start", rest)

	rest, ok = stripPrefix("!S Kill @alice", prefixes)
	assert.True(t, ok)
	assert.Equal(t, "Kill @alice", rest, "matching is case-insensitive, content keeps its case")

	_, ok = stripPrefix("hello there", prefixes)
	assert.False(t, ok)

	_, ok = stripPrefix("!sausage party", prefixes)
	assert.False(t, ok, "prefix must be a whole word")
}

func TestCanonicalPhase(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]domain.Phase{
		"work":         domain.PhaseWorking,
		"working":      domain.PhaseWorking,
		"meet":         domain.PhaseMeeting,
		"meeting":      domain.PhaseMeeting,
		"intermission": domain.PhaseIntermission,
	} {
		p, err := domain.ParsePhase(canonicalPhase(in))
		assert.NoError(t, err, in)
		assert.Equal(t, want, p, in)
	}
}
