// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/arena/internal/platform/apperr"
)

// memoryState is the full content of a [MemoryStore]. It is never shared
// between goroutines without holding the store mutex.
type memoryState struct {
	accounts   map[string]Account
	identities map[string]Identity
}

func (state *memoryState) clone() *memoryState {
	next := &memoryState{
		accounts:   make(map[string]Account, len(state.accounts)),
		identities: make(map[string]Identity, len(state.identities)),
	}
	for id, account := range state.accounts {
		next.accounts[id] = account
	}
	for id, identity := range state.identities {
		next.identities[id] = identity
	}
	return next
}

// memoryRepository implements [Repository]; run provides the state under the
// right locking discipline.
type memoryRepository struct {
	run func(fn func(state *memoryState) error) error
}

// MemoryStore is an in-process [Store] used by tests and local development.
//
// Transactions take the store mutex for their whole duration and operate on a
// copy of the state that replaces the live one only on success.
type MemoryStore struct {
	*memoryRepository

	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		state: &memoryState{
			accounts:   map[string]Account{},
			identities: map[string]Identity{},
		},
	}
	store.memoryRepository = &memoryRepository{run: store.locked}
	return store
}

func (store *MemoryStore) locked(fn func(state *memoryState) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.state)
}

// InTx runs fn against a private copy of the state and publishes it if fn succeeds.
func (store *MemoryStore) InTx(_ context.Context, fn func(repository Repository) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	working := store.state.clone()
	tx := &memoryRepository{run: func(inner func(state *memoryState) error) error {
		return inner(working)
	}}

	if err := fn(tx); err != nil {
		return err
	}

	store.state = working
	return nil
}

// # Repository

func (repository *memoryRepository) FindAccountByID(_ context.Context, id string) (*Account, error) {
	var found Account
	err := repository.run(func(state *memoryState) error {
		account, ok := state.accounts[id]
		if !ok {
			return apperr.NotFound("Account")
		}
		found = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) FindAccountByEmail(_ context.Context, email string) (*Account, error) {
	var found Account
	err := repository.run(func(state *memoryState) error {
		for _, account := range state.accounts {
			if account.Email == email {
				found = account
				return nil
			}
		}
		return apperr.NotFound("Account")
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) FindIdentity(_ context.Context, provider Provider, providerID string) (*Identity, error) {
	var found Identity
	err := repository.run(func(state *memoryState) error {
		for _, identity := range state.identities {
			if identity.Provider == provider && identity.ProviderID == providerID {
				found = identity
				return nil
			}
		}
		return apperr.NotFound("Identity")
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) ListIdentities(_ context.Context, accountID string) ([]Identity, error) {
	identities := []Identity{}
	err := repository.run(func(state *memoryState) error {
		for _, identity := range state.identities {
			if identity.AccountID == accountID {
				identities = append(identities, identity)
			}
		}
		return nil
	})

	sort.Slice(identities, func(i, j int) bool {
		if identities[i].CreatedAt.Equal(identities[j].CreatedAt) {
			return identities[i].ID < identities[j].ID
		}
		return identities[i].CreatedAt.Before(identities[j].CreatedAt)
	})
	return identities, err
}

func (repository *memoryRepository) LockAccount(_ context.Context, id string) error {
	return repository.run(func(state *memoryState) error {
		if _, ok := state.accounts[id]; !ok {
			return apperr.NotFound("Account")
		}
		return nil
	})
}

func (repository *memoryRepository) CreateAccount(_ context.Context, account *Account, first *Identity) error {
	return repository.run(func(state *memoryState) error {
		if _, exists := state.accounts[account.ID]; exists {
			return apperr.Conflict("Resource already exists")
		}
		for _, existing := range state.accounts {
			if existing.Email == account.Email {
				return apperr.Conflict("Resource already exists")
			}
		}
		if err := state.checkIdentity(first); err != nil {
			return err
		}

		state.accounts[account.ID] = *account
		state.identities[first.ID] = *first
		return nil
	})
}

func (repository *memoryRepository) CreateIdentity(_ context.Context, identity *Identity) error {
	return repository.run(func(state *memoryState) error {
		if _, ok := state.accounts[identity.AccountID]; !ok {
			return apperr.NotFound("Account")
		}
		if err := state.checkIdentity(identity); err != nil {
			return err
		}

		state.identities[identity.ID] = *identity
		return nil
	})
}

func (repository *memoryRepository) TouchLastLogin(_ context.Context, accountID string, at time.Time) error {
	return repository.run(func(state *memoryState) error {
		account, ok := state.accounts[accountID]
		if !ok {
			return apperr.NotFound("Account")
		}
		account.LastLoginAt = at
		state.accounts[accountID] = account
		return nil
	})
}

func (repository *memoryRepository) UpdateProfile(_ context.Context, account *Account) error {
	return repository.run(func(state *memoryState) error {
		stored, ok := state.accounts[account.ID]
		if !ok {
			return apperr.NotFound("Account")
		}
		stored.Username = account.Username
		stored.RiotID = account.RiotID
		stored.RiotPUUID = account.RiotPUUID
		stored.UpdatedAt = account.UpdatedAt
		state.accounts[account.ID] = stored
		return nil
	})
}

func (repository *memoryRepository) DeleteIdentity(_ context.Context, identityID string) error {
	return repository.run(func(state *memoryState) error {
		if _, ok := state.identities[identityID]; !ok {
			return apperr.NotFound("Identity")
		}
		delete(state.identities, identityID)
		return nil
	})
}

func (repository *memoryRepository) DeleteAccount(_ context.Context, id string) error {
	return repository.run(func(state *memoryState) error {
		if _, ok := state.accounts[id]; !ok {
			return apperr.NotFound("Account")
		}
		delete(state.accounts, id)
		for identityID, identity := range state.identities {
			if identity.AccountID == id {
				delete(state.identities, identityID)
			}
		}
		return nil
	})
}

// checkIdentity enforces the identity uniqueness constraints.
func (state *memoryState) checkIdentity(identity *Identity) error {
	if _, exists := state.identities[identity.ID]; exists {
		return apperr.Conflict("Resource already exists")
	}
	for _, existing := range state.identities {
		if existing.Provider == identity.Provider && existing.ProviderID == identity.ProviderID {
			return apperr.Conflict("Resource already exists")
		}
	}
	return nil
}
