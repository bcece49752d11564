package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "jackpotwatch:state:"

// RedisStore keeps feed state as JSON strings under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *RedisStore) Close() {
	if s == nil || s.client == nil {
		return
	}
	_ = s.client.Close()
}

func (s *RedisStore) key(feed string) string {
	return s.prefix + feed
}

// GetState implements StateStore.
func (s *RedisStore) GetState(ctx context.Context, feed string) (FeedState, error) {
	if s == nil || s.client == nil {
		return FeedState{}, ErrNotConfigured
	}

	raw, err := s.client.Get(ctx, s.key(feed)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return FeedState{}, ErrNotFound
		}
		return FeedState{}, fmt.Errorf("redis get %q: %w", feed, err)
	}

	var state FeedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return FeedState{}, fmt.Errorf("decode feed state %q: %w", feed, err)
	}
	return state, nil
}

// PutState implements StateStore. Keys never expire.
func (s *RedisStore) PutState(ctx context.Context, feed string, state FeedState) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode feed state %q: %w", feed, err)
	}
	if err := s.client.Set(ctx, s.key(feed), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", feed, err)
	}
	return nil
}

var _ StateStore = (*RedisStore)(nil)
