// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/taibuivan/arena/internal/users/account"
)

const (
	// maxUserInfoBody caps the userinfo response read from a provider.
	maxUserInfoBody = 1 << 20

	// exchangeTimeout bounds the code exchange plus the userinfo fetch.
	exchangeTimeout = 10 * time.Second
)

// Credentials is the OAuth client registration for one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Spec describes how to talk to one provider.
type Spec struct {
	Provider    account.Provider
	Endpoint    oauth2.Endpoint
	Scopes      []string
	UserInfoURL string

	// SendClientID adds the Client-Id header to userinfo requests.
	SendClientID bool

	// Decode maps the raw userinfo body onto a [Profile]. Provider is filled in by the adapter.
	Decode func(body []byte) (*Profile, error)
}

// OAuth2Adapter runs the authorization code flow (with PKCE) for any [Spec].
type OAuth2Adapter struct {
	spec   Spec
	config *oauth2.Config
	client *http.Client
}

// AdapterOption customizes an [OAuth2Adapter].
type AdapterOption func(*OAuth2Adapter)

// WithHTTPClient replaces the client used for token exchange and userinfo calls.
func WithHTTPClient(client *http.Client) AdapterOption {
	return func(adapter *OAuth2Adapter) {
		adapter.client = client
	}
}

// NewOAuth2Adapter creates an adapter for spec using the given client registration.
func NewOAuth2Adapter(spec Spec, credentials Credentials, opts ...AdapterOption) *OAuth2Adapter {
	adapter := &OAuth2Adapter{
		spec: spec,
		config: &oauth2.Config{
			ClientID:     credentials.ClientID,
			ClientSecret: credentials.ClientSecret,
			RedirectURL:  credentials.CallbackURL,
			Endpoint:     spec.Endpoint,
			Scopes:       spec.Scopes,
		},
		client: &http.Client{Timeout: exchangeTimeout},
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Name returns the provider identifier used by the registry.
func (adapter *OAuth2Adapter) Name() account.Provider {
	return adapter.spec.Provider
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (adapter *OAuth2Adapter) AuthCodeURL(state, verifier string) string {
	return adapter.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades the code for a token and fetches the provider profile.
func (adapter *OAuth2Adapter) Exchange(ctx context.Context, code, verifier string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, adapter.client)

	// ── 1. Code Exchange ──────────────────────────────────────────────────
	token, err := adapter.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", adapter.spec.Provider, err)
	}

	// ── 2. Userinfo Fetch ─────────────────────────────────────────────────
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, adapter.spec.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo request failed: %w", adapter.spec.Provider, err)
	}
	request.Header.Set("Accept", "application/json")
	if adapter.spec.SendClientID {
		request.Header.Set("Client-Id", adapter.config.ClientID)
	}

	response, err := adapter.config.Client(ctx, token).Do(request)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo fetch failed: %w", adapter.spec.Provider, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxUserInfoBody))
	if err != nil {
		return nil, fmt.Errorf("%s userinfo read failed: %w", adapter.spec.Provider, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("%s userinfo returned status %d", adapter.spec.Provider, response.StatusCode)
	}

	// ── 3. Normalization ──────────────────────────────────────────────────
	profile, err := adapter.spec.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo decode failed: %w", adapter.spec.Provider, err)
	}
	profile.Provider = adapter.spec.Provider

	return profile, nil
}
