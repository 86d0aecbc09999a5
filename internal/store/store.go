// Package store persists opaque key-value documents for guilds.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrRevConflict = errors.New("document was modified concurrently")
)

// Document is the stored key-value bag for one guild. Rev is an opaque
// revision token; writes carrying a stale Rev fail with ErrRevConflict.
type Document struct {
	ID     string         `json:"_id"`
	Rev    string         `json:"_rev,omitempty"`
	Config map[string]any `json:"config"`
}

func NewDocument(id string) *Document {
	return &Document{ID: id, Config: make(map[string]any)}
}

// Store is the backing document store. Implementations return the new
// revision token from Set so callers can keep writing optimistically.
type Store interface {
	Get(ctx context.Context, id string) (*Document, error)
	Set(ctx context.Context, doc *Document) (string, error)
}
