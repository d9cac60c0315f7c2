// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth/provider"
)

// fakeProvider serves a token endpoint and a userinfo endpoint. The returned
// pointer holds the Client-Id header of the last userinfo call.
func fakeProvider(t *testing.T, userinfo string) (*httptest.Server, *string) {
	t.Helper()

	var clientID string

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(writer http.ResponseWriter, request *http.Request) {
		require.NoError(t, request.ParseForm())
		assert.Equal(t, "the-code", request.PostForm.Get("code"))
		assert.Equal(t, "the-verifier", request.PostForm.Get("code_verifier"))

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"access_token": "provider-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer provider-token" {
			writer.WriteHeader(http.StatusUnauthorized)
			return
		}
		clientID = request.Header.Get("Client-Id")
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(userinfo))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &clientID
}

func pointAt(spec provider.Spec, server *httptest.Server) provider.Spec {
	spec.Endpoint = oauth2.Endpoint{
		AuthURL:   server.URL + "/authorize",
		TokenURL:  server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	spec.UserInfoURL = server.URL + "/userinfo"
	return spec
}

var credentials = provider.Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	CallbackURL:  "http://localhost:3000/api/auth/google/callback",
}

/*
TestOAuth2Adapter_AuthCodeURL verifies state, redirect and PKCE challenge are present.
*/
func TestOAuth2Adapter_AuthCodeURL(t *testing.T) {
	adapter := provider.NewOAuth2Adapter(provider.GoogleSpec(), credentials)

	raw := adapter.AuthCodeURL("state-123", oauth2.GenerateVerifier())
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, credentials.CallbackURL, query.Get("redirect_uri"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Equal(t, "openid profile email", query.Get("scope"))
}

/*
TestOAuth2Adapter_Exchange maps each provider's userinfo payload onto a Profile.
*/
func TestOAuth2Adapter_Exchange(t *testing.T) {
	tests := []struct {
		name     string
		spec     provider.Spec
		userinfo string
		want     provider.Profile
		clientID string
	}{
		{
			"google",
			provider.GoogleSpec(),
			`{"sub":"g-42","email":"a@x.com","email_verified":true,"name":"Alice","picture":"https://img/a.png"}`,
			provider.Profile{Provider: account.ProviderGoogle, ProviderID: "g-42", Email: "a@x.com", EmailVerified: true, DisplayName: "Alice", AvatarURL: "https://img/a.png"},
			"",
		},
		{
			"discord",
			provider.DiscordSpec(),
			`{"id":"d-7","username":"alice","email":"a@x.com","verified":true,"avatar":"abc"}`,
			provider.Profile{Provider: account.ProviderDiscord, ProviderID: "d-7", Email: "a@x.com", EmailVerified: true, DisplayName: "alice", AvatarURL: "https://cdn.discordapp.com/avatars/d-7/abc.png"},
			"",
		},
		{
			"discord_without_avatar",
			provider.DiscordSpec(),
			`{"id":"d-8","username":"bob","email":"b@x.com","verified":false}`,
			provider.Profile{Provider: account.ProviderDiscord, ProviderID: "d-8", Email: "b@x.com", DisplayName: "bob"},
			"",
		},
		{
			"twitch",
			provider.TwitchSpec(),
			`{"data":[{"id":"t-1","login":"alice_tv","display_name":"","email":"a@x.com","profile_image_url":"https://img/t.png"}]}`,
			provider.Profile{Provider: account.ProviderTwitch, ProviderID: "t-1", Email: "a@x.com", EmailVerified: true, DisplayName: "alice_tv", AvatarURL: "https://img/t.png"},
			"client-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, clientID := fakeProvider(t, tt.userinfo)
			adapter := provider.NewOAuth2Adapter(pointAt(tt.spec, server), credentials, provider.WithHTTPClient(server.Client()))

			profile, err := adapter.Exchange(context.Background(), "the-code", "the-verifier")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *profile)
			assert.Equal(t, tt.clientID, *clientID)
		})
	}
}

/*
TestOAuth2Adapter_ExchangeMissingSubject rejects payloads without a subject id.
*/
func TestOAuth2Adapter_ExchangeMissingSubject(t *testing.T) {
	server, _ := fakeProvider(t, `{"email":"a@x.com"}`)
	adapter := provider.NewOAuth2Adapter(pointAt(provider.GoogleSpec(), server), credentials, provider.WithHTTPClient(server.Client()))

	_, err := adapter.Exchange(context.Background(), "the-code", "the-verifier")
	assert.Error(t, err)
}

/*
TestRegistry_Get distinguishes unknown and disabled providers.
*/
func TestRegistry_Get(t *testing.T) {
	registry := provider.NewRegistry(provider.NewOAuth2Adapter(provider.GoogleSpec(), credentials))

	adapter, err := registry.Get("Google")
	require.NoError(t, err)
	assert.Equal(t, account.ProviderGoogle, adapter.Name())

	_, err = registry.Get("discord")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.ErrorIs(t, err, provider.ErrProviderDisabled)

	_, err = registry.Get("github")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	assert.Equal(t, []account.Provider{account.ProviderGoogle}, registry.Enabled())
}

/*
TestMemoryStateStore verifies flows are single-use and expire.
*/
func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()
	store := provider.NewMemoryStateStore()
	flow := provider.Flow{Provider: account.ProviderDiscord, Verifier: "v", CreatedAt: time.Now()}

	require.NoError(t, store.Save(ctx, "state-1", flow, time.Minute))

	got, err := store.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, account.ProviderDiscord, got.Provider)

	_, err = store.Consume(ctx, "state-1")
	assert.ErrorIs(t, err, provider.ErrStateNotFound)

	require.NoError(t, store.Save(ctx, "state-2", flow, 0))
	_, err = store.Consume(ctx, "state-2")
	assert.ErrorIs(t, err, provider.ErrStateNotFound)

	_, err = store.Consume(ctx, "unknown")
	assert.ErrorIs(t, err, provider.ErrStateNotFound)
}
