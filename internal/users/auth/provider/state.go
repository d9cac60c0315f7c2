// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/arena/internal/platform/constants"
	"github.com/taibuivan/arena/internal/users/account"
)

// ErrStateNotFound is returned when a state value is unknown, expired, or already used.
var ErrStateNotFound = errors.New("provider: oauth state not found")

// Flow is the server-side half of an in-flight authorization request.
type Flow struct {
	Provider  account.Provider `json:"provider"`
	Verifier  string           `json:"verifier"`
	CreatedAt time.Time        `json:"createdAt"`
}

// StateStore keeps [Flow] records between the redirect and the callback.
//
// Consume is single-use: a state can be redeemed at most once.
type StateStore interface {
	Save(context context.Context, state string, flow Flow, ttl time.Duration) error
	Consume(context context.Context, state string) (*Flow, error)
}

// # Redis

// RedisStateStore stores flows in Redis under [constants.RedisPrefixOAuthState].
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: constants.RedisPrefixOAuthState}
}

func (store *RedisStateStore) key(state string) string {
	return store.prefix + state
}

// Save writes the flow with a TTL.
func (store *RedisStateStore) Save(context context.Context, state string, flow Flow, ttl time.Duration) error {
	if state == "" {
		return errors.New("provider: empty oauth state")
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("provider: failed to marshal flow: %w", err)
	}

	if err := store.client.Set(context, store.key(state), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis_oauth_state_save_failed: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the flow.
func (store *RedisStateStore) Consume(context context.Context, state string) (*Flow, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}

	value, err := store.client.GetDel(context, store.key(state)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis_oauth_state_consume_failed: %w", err)
	}

	var flow Flow
	if err := json.Unmarshal([]byte(value), &flow); err != nil {
		return nil, fmt.Errorf("provider: failed to unmarshal flow: %w", err)
	}
	return &flow, nil
}

// # Memory

type memoryFlow struct {
	flow      Flow
	expiresAt time.Time
}

// MemoryStateStore is an in-process [StateStore] for tests and single-node development.
type MemoryStateStore struct {
	mu    sync.Mutex
	flows map[string]memoryFlow
	now   func() time.Time
}

// NewMemoryStateStore returns an empty store using the wall clock.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{flows: map[string]memoryFlow{}, now: time.Now}
}

// Save stores the flow until ttl elapses.
func (store *MemoryStateStore) Save(_ context.Context, state string, flow Flow, ttl time.Duration) error {
	if state == "" {
		return errors.New("provider: empty oauth state")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.flows[state] = memoryFlow{flow: flow, expiresAt: store.now().Add(ttl)}
	return nil
}

// Consume returns and removes the flow if it has not expired.
func (store *MemoryStateStore) Consume(_ context.Context, state string) (*Flow, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, ok := store.flows[state]
	if !ok {
		return nil, ErrStateNotFound
	}
	delete(store.flows, state)

	if !store.now().Before(entry.expiresAt) {
		return nil, ErrStateNotFound
	}
	return &entry.flow, nil
}
