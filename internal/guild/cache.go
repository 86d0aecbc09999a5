package guild

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crewhush/crewhush/internal/store"
)

const (
	DefaultTTL      = 10 * time.Minute
	DefaultDebounce = 1500 * time.Millisecond
)

// Cache is a read-through cache of guild configs with a sliding TTL.
// Entries with an unflushed mutation are pinned: the janitor never drops a
// config while its debounced save is still owed to the store.
type Cache struct {
	st       store.Store
	ttl      time.Duration
	debounce time.Duration

	mu      sync.Mutex
	entries map[string]*cacheEntry

	done      chan struct{}
	closeOnce sync.Once
}

type cacheEntry struct {
	cfg     *Config
	expires time.Time
}

func NewCache(st store.Store, ttl, debounce time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Cache{
		st:       st,
		ttl:      ttl,
		debounce: debounce,
		entries:  make(map[string]*cacheEntry),
		done:     make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Load returns the canonical config instance for a guild. Hits serve the
// shared mutable object directly; misses read the store, degrading to a
// fresh empty document when the store has nothing or cannot be reached.
func (c *Cache) Load(ctx context.Context, guildID string) (*Config, error) {
	if strings.TrimSpace(guildID) == "" {
		return nil, ErrInvalidGuild
	}

	c.mu.Lock()
	if e, ok := c.entries[guildID]; ok {
		e.expires = time.Now().Add(c.ttl)
		c.mu.Unlock()
		return e.cfg, nil
	}
	c.mu.Unlock()

	doc, err := c.st.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Str("module", "guild.cache").Str("guild", guildID).
				Err(err).Msg("store read failed, starting from empty config")
		}
		doc = store.NewDocument(guildID)
	}
	cfg := newConfig(doc, c.st, c.debounce)

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent Load may have won; everyone must share one instance.
	if e, ok := c.entries[guildID]; ok {
		e.expires = time.Now().Add(c.ttl)
		return e.cfg, nil
	}
	c.entries[guildID] = &cacheEntry{cfg: cfg, expires: time.Now().Add(c.ttl)}
	return cfg, nil
}

// Close stops the janitor and flushes every pending save.
func (c *Cache) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		cfgs := make([]*Config, 0, len(c.entries))
		for _, e := range c.entries {
			cfgs = append(cfgs, e.cfg)
		}
		c.mu.Unlock()
		for _, cfg := range cfgs {
			if ferr := cfg.Flush(ctx); ferr != nil {
				log.Error().Str("module", "guild.cache").Str("guild", cfg.ID()).
					Err(ferr).Msg("flush on close failed")
				err = ferr
			}
		}
	})
	return err
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.evictExpired(now)
		}
	}
}

func (c *Cache) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if now.Before(e.expires) {
			continue
		}
		if e.cfg.Dirty() {
			// Pinned until the debounced save lands.
			continue
		}
		delete(c.entries, id)
		log.Debug().Str("module", "guild.cache").Str("guild", id).Msg("evicted idle config")
	}
}
