package guild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupSetting(t *testing.T) {
	t.Parallel()

	s, err := lookupSetting("Prefix")
	require.NoError(t, err, "keys are case-insensitive")
	assert.Equal(t, SettingPrefix, s.key)

	_, err = lookupSetting("no-such-thing")
	assert.ErrorIs(t, err, ErrNoSuchSetting)
}

func TestNormalizePrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"!sau", "!sau"},
		{"!SAU !S", "!sau|!s"},
		{"  !a | !b\t!c ", "!a|!b|!c"},
		{"!a||!b", "!a|!b"},
	}
	for _, tc := range cases {
		got, err := normalizePrefix(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []any{"", " | ", 42, nil} {
		_, err := normalizePrefix(bad)
		assert.ErrorIs(t, err, ErrEmptyPrefix, "%v", bad)
	}
}
