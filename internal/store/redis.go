package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "guild:"

// RedisStore keeps each document as a JSON payload under guild:<id>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(id string) string { return keyPrefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Document, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if doc.Config == nil {
		doc.Config = make(map[string]any)
	}
	return &doc, nil
}

// Set writes the full document inside a WATCH transaction so a concurrent
// writer with a newer revision wins instead of being overwritten.
func (s *RedisStore) Set(ctx context.Context, doc *Document) (string, error) {
	key := s.key(doc.ID)
	newRev := uuid.NewString()

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var existing Document
			if err := json.Unmarshal(raw, &existing); err == nil && existing.Rev != doc.Rev {
				return fmt.Errorf("%w: %s", ErrRevConflict, doc.ID)
			}
		}

		payload, err := json.Marshal(Document{ID: doc.ID, Rev: newRev, Config: doc.Config})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return "", fmt.Errorf("set document %s: %w", doc.ID, err)
	}
	return newRev, nil
}
