// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth"
)

type serviceFixture struct {
	tokens  *sec.TokenService
	store   *account.MemoryStore
	service *auth.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService(
		sec.TokenSettings{Secret: "access-secret", TTL: time.Hour},
		sec.TokenSettings{Secret: "refresh-secret", TTL: 24 * time.Hour},
		"arena-test",
	)
	require.NoError(t, err)

	store := account.NewMemoryStore()
	return &serviceFixture{
		tokens:  tokens,
		store:   store,
		service: auth.NewService(auth.NewResolver(store, nil), store, tokens),
	}
}

func (f *serviceFixture) seed(t *testing.T, id string, role sec.Role) *account.Account {
	t.Helper()

	now := time.Now().UTC()
	principal := &account.Account{ID: id, Email: id + "@arena.gg", Username: id, Role: role, CreatedAt: now, LastLoginAt: now, UpdatedAt: now}
	require.NoError(t, f.store.CreateAccount(context.Background(), principal, &account.Identity{
		ID: id + "-google", AccountID: id, Provider: account.ProviderGoogle, ProviderID: "g-" + id, Email: principal.Email, CreatedAt: now,
	}))
	return principal
}

/*
TestService_SignIn verifies the session carries a snapshot and a verifiable pair.
*/
func TestService_SignIn(t *testing.T) {
	f := newServiceFixture(t)

	session, err := f.service.SignIn(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", session.Account.Email)
	assert.Equal(t, sec.RolePlayer, session.Account.Role)

	claims, err := f.tokens.Verify(session.Tokens.AccessToken, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, claims.AccountID)

	_, err = f.tokens.Verify(session.Tokens.RefreshToken, sec.ClassRefresh)
	assert.NoError(t, err)
}

/*
TestService_RefreshUsesCurrentRole verifies a rotated pair reflects role changes since issuance.
*/
func TestService_RefreshUsesCurrentRole(t *testing.T) {
	f := newServiceFixture(t)
	principal := f.seed(t, "org-1", sec.RoleOrganizer)

	stale, err := f.tokens.IssueRefreshToken(sec.Claims{AccountID: principal.ID, Email: principal.Email, Role: sec.RolePlayer})
	require.NoError(t, err)

	pair, err := f.service.Refresh(context.Background(), stale)
	require.NoError(t, err)

	claims, err := f.tokens.Verify(pair.AccessToken, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleOrganizer, claims.Role)
	assert.NotEqual(t, stale, pair.RefreshToken)
}

/*
TestService_RefreshRejections covers every way a refresh token is refused.
*/
func TestService_RefreshRejections(t *testing.T) {
	f := newServiceFixture(t)
	principal := f.seed(t, "player-1", sec.RolePlayer)

	access, err := f.tokens.IssueAccessToken(principal.Claims())
	require.NoError(t, err)

	orphan, err := f.tokens.IssueRefreshToken(sec.Claims{AccountID: "deleted", Email: "gone@arena.gg", Role: sec.RolePlayer})
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{"empty", "   ", apperr.CodeBadRequest},
		{"garbage", "not-a-token", apperr.CodeUnauthorized},
		{"access_token", access, apperr.CodeUnauthorized},
		{"deleted_account", orphan, apperr.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), tt.token)
			assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

/*
TestService_DeleteAccount verifies the account and its identities disappear.
*/
func TestService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	principal := f.seed(t, "player-1", sec.RolePlayer)

	require.NoError(t, f.service.DeleteAccount(ctx, principal.ID))

	_, err := f.service.CurrentAccount(ctx, principal.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.store.FindIdentity(ctx, account.ProviderGoogle, "g-player-1")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = f.service.DeleteAccount(ctx, principal.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
