// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account defines the durable principals of the platform and their links
to external identity providers.

# Invariants

  - Email is globally unique.
  - Role is always one of [sec.RoleAdmin], [sec.RoleOrganizer], [sec.RolePlayer].
  - The (provider, providerId) pair links to at most one Account.
  - An Account exists if and only if it owns at least one Identity.

The last rule is upheld by creating the first Identity together with the Account
and by refusing to unlink the only remaining Identity.
*/
package account

import (
	"strings"
	"time"

	"github.com/taibuivan/arena/internal/platform/sec"
)

// # Providers

// Provider tags the external identity source of an [Identity].
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderDiscord Provider = "discord"
	ProviderTwitch  Provider = "twitch"
)

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderDiscord, ProviderTwitch}
}

// ParseProvider maps a case-insensitive tag onto a known [Provider].
func ParseProvider(value string) (Provider, bool) {
	candidate := Provider(strings.ToLower(strings.TrimSpace(value)))
	for _, provider := range Providers() {
		if candidate == provider {
			return provider, true
		}
	}
	return "", false
}

// ProviderNames returns the provider tags as plain strings, for messages and validators.
func ProviderNames() []string {
	providers := Providers()
	names := make([]string, len(providers))
	for i, provider := range providers {
		names[i] = string(provider)
	}
	return names
}

// # Domain Entities

// Account is the durable user principal, one per distinct person.
type Account struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	AvatarURL   *string   `json:"avatarUrl"`
	Role        sec.Role  `json:"role"`
	RiotID      *string   `json:"riotId"`
	RiotPUUID   *string   `json:"riotPuuid"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Claims returns the identity embedded in tokens issued for the account.
func (a *Account) Claims() sec.Claims {
	return sec.Claims{AccountID: a.ID, Email: a.Email, Role: a.Role}
}

// IsAdmin reports whether the account bypasses ownership checks.
func (a *Account) IsAdmin() bool {
	return a.Role == sec.RoleAdmin
}

// Identity is one external-provider credential linked to an [Account].
type Identity struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"-"`
	Provider   Provider  `json:"provider"`
	ProviderID string    `json:"providerId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
}

// # Read Models

// Snapshot is the projection of an [Account] returned alongside fresh tokens.
type Snapshot struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	AvatarURL   *string   `json:"avatarUrl"`
	Role        sec.Role  `json:"role"`
	RiotID      *string   `json:"riotId"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Snapshot projects the account for an authentication response.
func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		ID:          a.ID,
		Email:       a.Email,
		Username:    a.Username,
		AvatarURL:   a.AvatarURL,
		Role:        a.Role,
		RiotID:      a.RiotID,
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

// Profile is an account together with every identity linked to it.
type Profile struct {
	Account
	Identities []Identity `json:"oauthAccounts"`
}

// # Helpers

// NormalizeEmail folds an email address for uniqueness comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
