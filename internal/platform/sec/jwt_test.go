// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/arena/internal/platform/sec"
)

var claims = sec.Claims{AccountID: "acc-1", Email: "a@x.com", Role: sec.RoleOrganizer}

func newService(t *testing.T, opts ...sec.Option) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(
		sec.TokenSettings{Secret: "access-secret", TTL: time.Hour},
		sec.TokenSettings{Secret: "refresh-secret", TTL: 30 * 24 * time.Hour},
		"arena-test",
		opts...,
	)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies both classes decode to the claims they were issued with.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newService(t)

	pair, err := service.IssuePair(claims)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := service.Verify(pair.AccessToken, sec.ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, claims, access.Identity())
	assert.Equal(t, "acc-1", access.Subject)

	refresh, err := service.Verify(pair.RefreshToken, sec.ClassRefresh)
	require.NoError(t, err)
	assert.Equal(t, claims, refresh.Identity())
}

/*
TestTokenService_UniqueTokens ensures two tokens issued in the same instant differ.
*/
func TestTokenService_UniqueTokens(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newService(t, sec.WithClock(func() time.Time { return frozen }))

	first, err := service.IssueAccessToken(claims)
	require.NoError(t, err)
	second, err := service.IssueAccessToken(claims)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestTokenService_Expiry verifies expired tokens are reported distinctly from malformed ones.
*/
func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt
	service := newService(t, sec.WithClock(func() time.Time { return current }))

	token, err := service.IssueAccessToken(claims)
	require.NoError(t, err)

	current = issuedAt.Add(59 * time.Minute)
	_, err = service.Verify(token, sec.ClassAccess)
	require.NoError(t, err)

	current = issuedAt.Add(61 * time.Minute)
	_, err = service.Verify(token, sec.ClassAccess)
	assert.ErrorIs(t, err, sec.ErrExpiredCredential)
	assert.NotErrorIs(t, err, sec.ErrMalformedCredential)
}

/*
TestTokenService_ExpirySubSecondIssue verifies a token issued mid-second stays valid
until its full lifetime has elapsed.
*/
func TestTokenService_ExpirySubSecondIssue(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 900*int(time.Millisecond), time.UTC)
	current := issuedAt
	service, err := sec.NewTokenService(
		sec.TokenSettings{Secret: "access-secret", TTL: time.Second},
		sec.TokenSettings{Secret: "refresh-secret", TTL: time.Hour},
		"arena-test",
		sec.WithClock(func() time.Time { return current }),
	)
	require.NoError(t, err)

	token, err := service.IssueAccessToken(claims)
	require.NoError(t, err)

	tests := []struct {
		name    string
		after   time.Duration
		expired bool
	}{
		{"same_second", 50 * time.Millisecond, false},
		{"next_second_before_lifetime", 500 * time.Millisecond, false},
		{"just_past_lifetime", 1050 * time.Millisecond, true},
		{"well_past_lifetime", 2 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current = issuedAt.Add(tt.after)
			_, err := service.Verify(token, sec.ClassAccess)
			if tt.expired {
				assert.ErrorIs(t, err, sec.ErrExpiredCredential)
				return
			}
			assert.NoError(t, err)
		})
	}
}

/*
TestTokenService_Malformed covers cross-class use, foreign secrets and garbage input.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newService(t)
	pair, err := service.IssuePair(claims)
	require.NoError(t, err)

	foreign, err := sec.NewTokenService(
		sec.TokenSettings{Secret: "other-access", TTL: time.Hour},
		sec.TokenSettings{Secret: "other-refresh", TTL: time.Hour},
		"arena-test",
	)
	require.NoError(t, err)
	foreignToken, err := foreign.IssueAccessToken(claims)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		class sec.TokenClass
	}{
		{"refresh_as_access", pair.RefreshToken, sec.ClassAccess},
		{"access_as_refresh", pair.AccessToken, sec.ClassRefresh},
		{"foreign_secret", foreignToken, sec.ClassAccess},
		{"garbage", "not.a.token", sec.ClassAccess},
		{"empty", "", sec.ClassAccess},
		{"truncated_signature", pair.AccessToken[:len(pair.AccessToken)-4], sec.ClassAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Verify(tt.token, tt.class)
			assert.ErrorIs(t, err, sec.ErrMalformedCredential)
		})
	}
}

/*
TestNewTokenService_Invalid rejects unusable settings at construction.
*/
func TestNewTokenService_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		access  sec.TokenSettings
		refresh sec.TokenSettings
	}{
		{"empty_secret", sec.TokenSettings{TTL: time.Hour}, sec.TokenSettings{Secret: "r", TTL: time.Hour}},
		{"same_secret", sec.TokenSettings{Secret: "s", TTL: time.Hour}, sec.TokenSettings{Secret: "s", TTL: time.Hour}},
		{"zero_ttl", sec.TokenSettings{Secret: "a"}, sec.TokenSettings{Secret: "r", TTL: time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenService(tt.access, tt.refresh, "arena-test")
			assert.Error(t, err)
		})
	}
}

/*
TestExtractBearer checks the header grammar.
*/
func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"valid", "Bearer abc.def", "abc.def", true},
		{"lowercase_scheme", "bearer abc", "abc", true},
		{"empty", "", "", false},
		{"scheme_only", "Bearer", "", false},
		{"empty_token", "Bearer ", "", false},
		{"wrong_scheme", "Basic abc", "", false},
		{"three_segments", "Bearer abc def", "", false},
		{"double_space", "Bearer  abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := sec.ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

/*
TestRole_In verifies roles are flat.
*/
func TestRole_In(t *testing.T) {
	assert.True(t, sec.RoleAdmin.In(sec.RoleAdmin))
	assert.False(t, sec.RoleAdmin.In(sec.RolePlayer, sec.RoleOrganizer))
	assert.True(t, sec.RolePlayer.Valid())
	assert.False(t, sec.Role("superuser").Valid())
}

/*
TestGenerateSecureToken checks length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}
