// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth turns a provider-verified identity into an account and a token pair.

# Architecture

  - [Resolver] maps a provider [provider.Profile] to exactly one [account.Account]:
    login, implicit email linking, or first-time creation.
  - [Service] wraps the resolver with session operations (refresh, logout,
    account deletion).
  - [Handler] exposes both over HTTP, including the OAuth redirect dance.
*/
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth/provider"
	"github.com/taibuivan/arena/pkg/pointer"
	"github.com/taibuivan/arena/pkg/uuid"
)

const (
	// resolveAttempts bounds how often a resolution is replayed after a uniqueness race.
	resolveAttempts = 2

	// fallbackUsername is used when a provider reports neither a name nor a usable email.
	fallbackUsername = "User"

	// maxUsernameLength matches the profile update rule.
	maxUsernameLength = 50
)

// outcome names which branch of the resolution produced the account.
type outcome string

const (
	outcomeLogin   outcome = "login"
	outcomeLinked  outcome = "linked"
	outcomeCreated outcome = "created"
)

// Resolver maps external identities onto accounts.
//
// # Concurrency
//
// Each resolution runs in a single store transaction. Two concurrent first
// logins for the same person race on the unique constraints; the loser replays
// the whole resolution once and normally lands on the login or link branch.
type Resolver struct {
	store account.Store
	now   func() time.Time
}

// NewResolver creates a new Resolver. A nil clock means [time.Now].
func NewResolver(store account.Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, now: now}
}

/*
Resolve returns the account owning the provider identity, linking or creating it
as needed.

Steps, in one transaction:
 1. Known (provider, providerId): stamp lastLoginAt and return the owner.
 2. Known email: link a new identity to that account.
 3. Otherwise: create a player account together with its first identity.

Returns:
  - *account.Account: The resolved principal
  - error: apperr.BadRequest for an incomplete profile, StoreUnavailable when the
    store fails, ConflictRetryExhausted when the uniqueness race does not settle
*/
func (resolver *Resolver) Resolve(context context.Context, profile provider.Profile) (*account.Account, error) {

	// ── 1. Profile Validation ─────────────────────────────────────────────
	normalized, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}

	// ── 2. Resolution With Bounded Replay ─────────────────────────────────
	var lastConflict error
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		resolved, result, err := resolver.resolveOnce(context, normalized)
		if err == nil {
			resolver.logOutcome(context, normalized, resolved, result)
			return resolved, nil
		}

		if apperr.HasCode(err, apperr.CodeConflict) {
			lastConflict = err
			continue
		}

		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.StoreUnavailable(err)
	}

	return nil, apperr.ConflictRetryExhausted(lastConflict)
}

func (resolver *Resolver) resolveOnce(context context.Context, profile provider.Profile) (*account.Account, outcome, error) {
	var (
		resolved *account.Account
		result   outcome
	)

	err := resolver.store.InTx(context, func(repository account.Repository) error {
		now := resolver.now().UTC()

		// Step 1: identity already linked
		identity, err := repository.FindIdentity(context, profile.Provider, profile.ProviderID)
		switch {
		case err == nil:
			owner, err := repository.FindAccountByID(context, identity.AccountID)
			if err != nil {
				return err
			}
			if err := repository.TouchLastLogin(context, owner.ID, now); err != nil {
				return err
			}
			owner.LastLoginAt = now
			resolved, result = owner, outcomeLogin
			return nil
		case !apperr.HasCode(err, apperr.CodeNotFound):
			return err
		}

		// Step 2: same email arrives through a new provider
		link := &account.Identity{
			ID:         uuid.New(),
			Provider:   profile.Provider,
			ProviderID: profile.ProviderID,
			Email:      profile.Email,
			CreatedAt:  now,
		}

		existing, err := repository.FindAccountByEmail(context, account.NormalizeEmail(profile.Email))
		switch {
		case err == nil:
			link.AccountID = existing.ID
			if err := repository.CreateIdentity(context, link); err != nil {
				return err
			}
			if err := repository.TouchLastLogin(context, existing.ID, now); err != nil {
				return err
			}
			existing.LastLoginAt = now
			resolved, result = existing, outcomeLinked
			return nil
		case !apperr.HasCode(err, apperr.CodeNotFound):
			return err
		}

		// Step 3: brand new person
		created := &account.Account{
			ID:          uuid.New(),
			Email:       account.NormalizeEmail(profile.Email),
			Username:    profile.DisplayName,
			AvatarURL:   pointer.NonZero(profile.AvatarURL),
			Role:        sec.RolePlayer,
			CreatedAt:   now,
			LastLoginAt: now,
			UpdatedAt:   now,
		}
		link.AccountID = created.ID

		if err := repository.CreateAccount(context, created, link); err != nil {
			return err
		}
		resolved, result = created, outcomeCreated
		return nil
	})

	if err != nil {
		return nil, "", err
	}
	return resolved, result, nil
}

func (resolver *Resolver) logOutcome(context context.Context, profile provider.Profile, resolved *account.Account, result outcome) {
	logger := ctxutil.GetLogger(context)
	attrs := []any{
		slog.String("account_id", resolved.ID),
		slog.String("provider", string(profile.Provider)),
	}

	switch result {
	case outcomeLogin:
		logger.InfoContext(context, "oauth_login", attrs...)
	case outcomeLinked:
		if !profile.EmailVerified {
			logger.WarnContext(context, "oauth_link_unverified_email", attrs...)
		}
		logger.InfoContext(context, "oauth_identity_linked", attrs...)
	case outcomeCreated:
		logger.InfoContext(context, "account_created", attrs...)
	}
}

// # Profile Normalization

var errIncompleteProfile = errors.New("auth: incomplete provider profile")

// normalizeProfile trims the profile and fills in a display name.
func normalizeProfile(profile provider.Profile) (provider.Profile, error) {
	providerName, ok := account.ParseProvider(string(profile.Provider))
	if !ok {
		return profile, apperr.BadRequest("Unsupported OAuth provider").WithCause(errIncompleteProfile)
	}
	profile.Provider = providerName

	profile.ProviderID = strings.TrimSpace(profile.ProviderID)
	if profile.ProviderID == "" {
		return profile, apperr.BadRequest("OAuth profile is missing the provider user id").WithCause(errIncompleteProfile)
	}

	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email == "" {
		return profile, apperr.BadRequest("OAuth profile is missing an email address").WithCause(errIncompleteProfile)
	}

	profile.DisplayName = displayName(profile)
	profile.AvatarURL = strings.TrimSpace(profile.AvatarURL)

	return profile, nil
}

// displayName falls back from the provider name to the email local part, then to "User".
func displayName(profile provider.Profile) string {
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		local, _, _ := strings.Cut(profile.Email, "@")
		name = strings.TrimSpace(local)
	}
	if name == "" {
		return fallbackUsername
	}

	if utf8.RuneCountInString(name) > maxUsernameLength {
		name = string([]rune(name)[:maxUsernameLength])
	}
	return name
}
