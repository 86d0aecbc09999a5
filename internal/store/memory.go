package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a Store for tests and storeless dev runs. Documents are
// copied on the way in and out, like a real store would.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	raw, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Config == nil {
		doc.Config = make(map[string]any)
	}
	return &doc, nil
}

func (s *MemoryStore) Set(ctx context.Context, doc *Document) (string, error) {
	newRev := uuid.NewString()
	payload, err := json.Marshal(Document{ID: doc.ID, Rev: newRev, Config: doc.Config})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.docs[doc.ID]; ok {
		var existing Document
		if err := json.Unmarshal(raw, &existing); err == nil && existing.Rev != doc.Rev {
			return "", fmt.Errorf("%w: %s", ErrRevConflict, doc.ID)
		}
	}
	s.docs[doc.ID] = payload
	return newRev, nil
}
