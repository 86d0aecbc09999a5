// Package guild holds per-guild settings behind a read-through,
// write-behind cache.
package guild

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSuchSetting = errors.New("there is no such setting")
	ErrEmptyPrefix   = errors.New("cannot set an empty command prefix")
)

// SettingKey names one of the closed set of guild settings.
type SettingKey string

const (
	SettingPrefix SettingKey = "prefix"
)

const defaultPrefix = "!sau|!s"

// setting is the descriptor for one key: its default, an optional
// normalizer applied on writes, and an optional presenter applied on reads.
type setting struct {
	key       SettingKey
	def       any
	normalize func(any) (any, error)
	present   func(any) any
}

// lookupSetting resolves a key by exhaustive match. Unknown keys are a
// validation error, not a stored value.
func lookupSetting(key SettingKey) (setting, error) {
	switch SettingKey(strings.ToLower(strings.TrimSpace(string(key)))) {
	case SettingPrefix:
		return setting{key: SettingPrefix, def: defaultPrefix, normalize: normalizePrefix}, nil
	default:
		return setting{}, fmt.Errorf("%w: %q", ErrNoSuchSetting, key)
	}
}

// normalizePrefix lowercases the input and collapses any mix of whitespace
// and pipes into a single pipe-separated list.
func normalizePrefix(value any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: prefix must be a string", ErrEmptyPrefix)
	}
	parts := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(raw)), func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(parts) == 0 {
		return nil, ErrEmptyPrefix
	}
	return strings.Join(parts, "|"), nil
}
