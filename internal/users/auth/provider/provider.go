// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provider adapts external OAuth 2.0 identity providers to a normalized
[Profile].

Adapters return identity facts only. They never create accounts, link
identities, or issue tokens; that is the job of the auth service.
*/
package provider

import (
	"context"
	"errors"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/users/account"
)

// ErrProviderDisabled is returned by [Registry.Get] for a known provider that has no credentials.
var ErrProviderDisabled = errors.New("provider: not configured")

// Profile is the normalized identity reported by a provider after consent.
type Profile struct {
	Provider      account.Provider
	ProviderID    string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
}

// Adapter is the contract every external provider implements.
type Adapter interface {
	// Name returns the provider tag used in routes and identity rows.
	Name() account.Provider

	// AuthCodeURL returns the consent URL carrying state and the PKCE challenge for verifier.
	AuthCodeURL(state, verifier string) string

	// Exchange trades the authorization code for a normalized profile.
	Exchange(context context.Context, code, verifier string) (*Profile, error)
}

// # Registry

// Registry holds the configured adapters keyed by provider.
type Registry struct {
	adapters map[account.Provider]Adapter
}

// NewRegistry registers the given adapters by name. Later duplicates win.
func NewRegistry(adapters ...Adapter) *Registry {
	registry := &Registry{adapters: make(map[account.Provider]Adapter, len(adapters))}
	for _, adapter := range adapters {
		registry.adapters[adapter.Name()] = adapter
	}
	return registry
}

// Get returns the adapter for a raw provider tag.
//
// Returns:
//   - apperr.NotFound for an unknown tag
//   - apperr.NotFound wrapping [ErrProviderDisabled] for a supported but unconfigured provider
func (registry *Registry) Get(name string) (Adapter, error) {
	providerName, ok := account.ParseProvider(name)
	if !ok {
		return nil, apperr.NotFoundf("Unknown OAuth provider: %s", name)
	}

	adapter, ok := registry.adapters[providerName]
	if !ok {
		return nil, apperr.NotFoundf("OAuth provider %s is not enabled", providerName).WithCause(ErrProviderDisabled)
	}

	return adapter, nil
}

// Enabled lists the configured providers in display order.
func (registry *Registry) Enabled() []account.Provider {
	enabled := []account.Provider{}
	for _, candidate := range account.Providers() {
		if _, ok := registry.adapters[candidate]; ok {
			enabled = append(enabled, candidate)
		}
	}
	return enabled
}
