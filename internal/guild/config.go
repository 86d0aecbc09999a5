package guild

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/store"
)

var ErrInvalidGuild = errors.New("guild id must be a non-empty string")

// Config is the canonical in-memory settings document for one guild. Reads
// are served from memory; mutations are written behind a debounce window so
// a burst of changes costs one store write.
type Config struct {
	st       store.Store
	debounce time.Duration

	mu      sync.Mutex
	doc     *store.Document
	pending *time.Timer
	dirty   bool
}

func newConfig(doc *store.Document, st store.Store, debounce time.Duration) *Config {
	if doc.Config == nil {
		doc.Config = make(map[string]any)
	}
	return &Config{st: st, debounce: debounce, doc: doc}
}

func (c *Config) ID() string { return c.doc.ID }

// Get returns the effective value for a key: the stored override or the
// setting's default, through the setting's presenter.
func (c *Config) Get(key SettingKey) (any, error) {
	s, err := lookupSetting(key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	value, ok := c.doc.Config[string(s.key)]
	c.mu.Unlock()
	if !ok {
		value = s.def
	}
	if s.present != nil {
		value = s.present(value)
	}
	return value, nil
}

// Set normalizes and stores a value, scheduling a save only when the stored
// value actually changed. The effective value comes back either way.
func (c *Config) Set(key SettingKey, value any) (any, error) {
	s, err := lookupSetting(key)
	if err != nil {
		return nil, err
	}
	stored := value
	if s.normalize != nil {
		if stored, err = s.normalize(value); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if !reflect.DeepEqual(stored, c.doc.Config[string(s.key)]) {
		c.doc.Config[string(s.key)] = stored
		c.scheduleSaveLocked()
	}
	c.mu.Unlock()

	if s.present != nil {
		return s.present(stored), nil
	}
	return stored, nil
}

// Reset drops the override for a key, if any, and returns the default.
func (c *Config) Reset(key SettingKey) (any, error) {
	s, err := lookupSetting(key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, ok := c.doc.Config[string(s.key)]; ok {
		delete(c.doc.Config, string(s.key))
		c.scheduleSaveLocked()
	}
	c.mu.Unlock()

	value := s.def
	if s.present != nil {
		value = s.present(value)
	}
	return value, nil
}

// CommandPrefixes returns the prefix setting split into its alternatives.
func (c *Config) CommandPrefixes() []string {
	value, err := c.Get(SettingPrefix)
	if err != nil {
		return strings.Split(defaultPrefix, "|")
	}
	// Stored documents come from JSON we do not control; a non-string value
	// falls back to the default instead of taking the bot down.
	s, ok := value.(string)
	if !ok || s == "" {
		return strings.Split(defaultPrefix, "|")
	}
	return strings.Split(s, "|")
}

// UpdateCommandPrefixes replaces the prefix list and persists immediately,
// skipping the debounce window.
func (c *Config) UpdateCommandPrefixes(ctx context.Context, prefixes ...string) error {
	if _, err := c.Set(SettingPrefix, strings.Join(prefixes, " ")); err != nil {
		return err
	}
	return c.Flush(ctx)
}

// Dirty reports whether the document holds changes the store has not seen.
// The cache uses this to pin entries until their save lands.
func (c *Config) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// scheduleSaveLocked resets the single pending save timer. Rapid mutations
// keep pushing the write out instead of queueing more writes.
func (c *Config) scheduleSaveLocked() {
	c.dirty = true
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(c.debounce, func() {
		if err := c.Flush(context.Background()); err != nil {
			// Memory stays authoritative; the next mutation retries.
			log.Error().Str("module", "guild.config").Str("guild", c.ID()).
				Err(err).Msg("debounced save failed")
		}
	})
}

// Flush writes the full document now, cancelling any pending timer. On
// success the revision token advances for the next optimistic write.
func (c *Config) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := &store.Document{ID: c.doc.ID, Rev: c.doc.Rev, Config: maps.Clone(c.doc.Config)}
	c.dirty = false
	c.mu.Unlock()

	rev, err := c.st.Set(ctx, snapshot)
	if err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.doc.Rev = rev
	c.mu.Unlock()
	return nil
}
