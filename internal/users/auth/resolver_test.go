// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth"
	"github.com/taibuivan/arena/internal/users/auth/provider"
)

// clock returns a controllable time source.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func googleProfile() provider.Profile {
	return provider.Profile{
		Provider:      account.ProviderGoogle,
		ProviderID:    "g-1",
		Email:         "Alice@Example.com",
		EmailVerified: true,
		DisplayName:   "Alice",
		AvatarURL:     "https://img/alice.png",
	}
}

func discordProfile() provider.Profile {
	return provider.Profile{
		Provider:      account.ProviderDiscord,
		ProviderID:    "d-9",
		Email:         "alice@example.com",
		EmailVerified: true,
		DisplayName:   "alice#0001",
	}
}

/*
TestResolver_CreatesAccountOnFirstLogin verifies the account and identity are created together.
*/
func TestResolver_CreatesAccountOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	clk := newClock()
	resolver := auth.NewResolver(store, clk.Now)

	principal, err := resolver.Resolve(ctx, googleProfile())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", principal.Email)
	assert.Equal(t, "Alice", principal.Username)
	assert.Equal(t, sec.RolePlayer, principal.Role)
	require.NotNil(t, principal.AvatarURL)
	assert.Equal(t, "https://img/alice.png", *principal.AvatarURL)
	assert.Equal(t, clk.now, principal.CreatedAt)
	assert.Equal(t, clk.now, principal.LastLoginAt)

	identities, err := store.ListIdentities(ctx, principal.ID)
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, account.ProviderGoogle, identities[0].Provider)
	assert.Equal(t, "g-1", identities[0].ProviderID)
	assert.Equal(t, "Alice@Example.com", identities[0].Email)
}

/*
TestResolver_RepeatLoginIsIdempotent verifies a known identity only updates lastLoginAt.
*/
func TestResolver_RepeatLoginIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	clk := newClock()
	resolver := auth.NewResolver(store, clk.Now)

	first, err := resolver.Resolve(ctx, googleProfile())
	require.NoError(t, err)

	clk.Advance(time.Hour)
	profile := googleProfile()
	profile.DisplayName = "Renamed"

	second, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice", second.Username)
	assert.Equal(t, clk.now, second.LastLoginAt)

	stored, err := store.FindAccountByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, clk.now, stored.LastLoginAt)
	assert.Equal(t, first.CreatedAt, stored.CreatedAt)

	identities, err := store.ListIdentities(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, identities, 1)
}

/*
TestResolver_LinksByEmail verifies a second provider with a matching email joins the same account.
*/
func TestResolver_LinksByEmail(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	resolver := auth.NewResolver(store, newClock().Now)

	google, err := resolver.Resolve(ctx, googleProfile())
	require.NoError(t, err)

	discord, err := resolver.Resolve(ctx, discordProfile())
	require.NoError(t, err)
	assert.Equal(t, google.ID, discord.ID)

	identities, err := store.ListIdentities(ctx, google.ID)
	require.NoError(t, err)
	require.Len(t, identities, 2)
	assert.Equal(t, account.ProviderGoogle, identities[0].Provider)
	assert.Equal(t, account.ProviderDiscord, identities[1].Provider)

	// Logging in with either provider afterwards lands on the same account.
	again, err := resolver.Resolve(ctx, discordProfile())
	require.NoError(t, err)
	assert.Equal(t, google.ID, again.ID)
}

/*
TestResolver_RejectsIncompleteProfiles covers the profile validation rules.
*/
func TestResolver_RejectsIncompleteProfiles(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*provider.Profile)
	}{
		{"unknown_provider", func(p *provider.Profile) { p.Provider = "github" }},
		{"empty_provider_id", func(p *provider.Profile) { p.ProviderID = "  " }},
		{"empty_email", func(p *provider.Profile) { p.Email = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := account.NewMemoryStore()
			profile := googleProfile()
			tt.mutate(&profile)

			_, err := auth.NewResolver(store, nil).Resolve(context.Background(), profile)
			assert.True(t, apperr.HasCode(err, apperr.CodeBadRequest))

			_, err = store.FindAccountByEmail(context.Background(), "alice@example.com")
			assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		})
	}
}

/*
TestResolver_DisplayNameFallback verifies the username fallbacks and length cap.
*/
func TestResolver_DisplayNameFallback(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		email       string
		want        string
	}{
		{"provider_name", "  Bob  ", "bob@x.com", "Bob"},
		{"email_local_part", "", "carol@x.com", "carol"},
		{"placeholder", "", "@x.com", "User"},
		{"truncated", strings.Repeat("é", 60), "long@x.com", strings.Repeat("é", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := googleProfile()
			profile.DisplayName = tt.displayName
			profile.Email = tt.email

			principal, err := auth.NewResolver(account.NewMemoryStore(), nil).Resolve(context.Background(), profile)
			require.NoError(t, err)
			assert.Equal(t, tt.want, principal.Username)
		})
	}
}

// # Store Fakes

// racingStore simulates a concurrent first login committing between our reads and our write.
type racingStore struct {
	*account.MemoryStore
	competitor func() error
	calls      int
}

func (store *racingStore) InTx(ctx context.Context, fn func(repository account.Repository) error) error {
	store.calls++
	if store.calls > 1 {
		return store.MemoryStore.InTx(ctx, fn)
	}

	err := store.MemoryStore.InTx(ctx, func(repository account.Repository) error {
		return fn(&conflictingRepository{Repository: repository})
	})
	if competitorErr := store.competitor(); competitorErr != nil {
		return competitorErr
	}
	return err
}

// conflictingRepository fails account creation with a uniqueness conflict.
type conflictingRepository struct {
	account.Repository
}

func (repository *conflictingRepository) CreateAccount(context.Context, *account.Account, *account.Identity) error {
	return apperr.Conflict("Resource already exists")
}

// failingStore returns the same error from every transaction.
type failingStore struct {
	*account.MemoryStore
	err   error
	calls int
}

func (store *failingStore) InTx(context.Context, func(repository account.Repository) error) error {
	store.calls++
	return store.err
}

/*
TestResolver_RetriesAfterUniquenessRace verifies the loser of a creation race resolves to the winner's account.
*/
func TestResolver_RetriesAfterUniquenessRace(t *testing.T) {
	ctx := context.Background()
	memory := account.NewMemoryStore()
	now := time.Now().UTC()

	winner := &account.Account{ID: "winner", Email: "alice@example.com", Username: "Alice", Role: sec.RolePlayer, CreatedAt: now, LastLoginAt: now, UpdatedAt: now}
	store := &racingStore{MemoryStore: memory, competitor: func() error {
		return memory.CreateAccount(ctx, winner, &account.Identity{
			ID: "winner-google", AccountID: winner.ID, Provider: account.ProviderGoogle, ProviderID: "g-1", Email: winner.Email, CreatedAt: now,
		})
	}}

	principal, err := auth.NewResolver(store, nil).Resolve(ctx, googleProfile())
	require.NoError(t, err)
	assert.Equal(t, "winner", principal.ID)
	assert.Equal(t, 2, store.calls)
}

/*
TestResolver_StoreFailures maps persistent conflicts and outages onto their error codes.
*/
func TestResolver_StoreFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantCalls int
	}{
		{"conflict_exhausted", apperr.Conflict("Resource already exists"), apperr.CodeConflictRetryExhausted, 2},
		{"store_down", errors.New("dial tcp: connection refused"), apperr.CodeStoreUnavailable, 1},
		{"app_error_passthrough", apperr.NotFound("Account"), apperr.CodeNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &failingStore{MemoryStore: account.NewMemoryStore(), err: tt.err}

			_, err := auth.NewResolver(store, nil).Resolve(context.Background(), googleProfile())
			assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, tt.wantCalls, store.calls)
		})
	}
}
