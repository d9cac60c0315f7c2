// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile manages an account's own data after sign-in: the public profile
fields and the set of linked OAuth identities.
*/
package profile

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/validate"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/pkg/pointer"
)

const (
	minUsernameLength  = 3
	maxUsernameLength  = 50
	maxRiotPUUIDLength = 100
)

// riotIDPattern matches a Riot ID in the Name#TAG form.
var riotIDPattern = regexp.MustCompile(`^[\w\s]{3,16}#\w{3,5}$`)

// Patch carries the optional profile changes. A nil field is left untouched and
// an empty riot field clears the stored value.
type Patch struct {
	Username  *string `json:"username"`
	RiotID    *string `json:"riotId"`
	RiotPUUID *string `json:"riotPuuid"`
}

// Service implements profile and identity management use cases.
type Service struct {
	store account.Store
	now   func() time.Time
}

// NewService constructs a new [Service]. A nil clock means [time.Now].
func NewService(store account.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// # Queries

/*
GetProfile returns the account together with its identities, oldest first.

Returns:
  - *account.Profile: Account plus identities
  - error: apperr.NotFound if the account is gone
*/
func (service *Service) GetProfile(context context.Context, accountID string) (*account.Profile, error) {
	principal, err := service.store.FindAccountByID(context, accountID)
	if err != nil {
		return nil, storeError(err)
	}

	identities, err := service.store.ListIdentities(context, accountID)
	if err != nil {
		return nil, storeError(err)
	}

	return &account.Profile{Account: *principal, Identities: identities}, nil
}

// ListIdentities returns the identities linked to the account, oldest first.
func (service *Service) ListIdentities(context context.Context, accountID string) ([]account.Identity, error) {
	if _, err := service.store.FindAccountByID(context, accountID); err != nil {
		return nil, storeError(err)
	}

	identities, err := service.store.ListIdentities(context, accountID)
	if err != nil {
		return nil, storeError(err)
	}
	return identities, nil
}

// # Commands

/*
UnlinkIdentity removes the account's identity for a provider.

The identity count is read under a row lock on the account, so two concurrent
unlinks cannot both pass the check and leave the account without a sign-in method.

Returns:
  - error: apperr.BadRequest when it is the last identity, apperr.NotFound when
    no identity for the provider is linked
*/
func (service *Service) UnlinkIdentity(context context.Context, accountID string, provider account.Provider) error {
	var removed account.Identity

	err := service.store.InTx(context, func(repository account.Repository) error {

		// ── 1. Serialize Against Concurrent Unlinks ───────────────────────
		if err := repository.LockAccount(context, accountID); err != nil {
			return err
		}

		identities, err := repository.ListIdentities(context, accountID)
		if err != nil {
			return err
		}

		// ── 2. Retention Rule ─────────────────────────────────────────────
		if len(identities) <= 1 {
			return apperr.BadRequest("Cannot remove the only sign-in method")
		}

		index := -1
		for i := range identities {
			if identities[i].Provider == provider {
				index = i
				break
			}
		}
		if index < 0 {
			return apperr.NotFoundf("No %s account is linked", provider)
		}

		// ── 3. Removal ────────────────────────────────────────────────────
		removed = identities[index]
		return repository.DeleteIdentity(context, removed.ID)
	})
	if err != nil {
		return storeError(err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "oauth_identity_unlinked",
		slog.String("account_id", accountID),
		slog.String("provider", string(provider)),
		slog.String("identity_id", removed.ID),
	)
	return nil
}

/*
UpdateProfile applies a validated [Patch] and returns the refreshed profile.

Returns:
  - *account.Profile: The profile after the update
  - error: apperr.ValidationError with per-field details, apperr.NotFound
*/
func (service *Service) UpdateProfile(context context.Context, accountID string, patch Patch) (*account.Profile, error) {

	// ── 1. Normalization & Validation ─────────────────────────────────────
	patch = normalizePatch(patch)
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	// ── 2. Persist ────────────────────────────────────────────────────────
	err := service.store.InTx(context, func(repository account.Repository) error {
		principal, err := repository.FindAccountByID(context, accountID)
		if err != nil {
			return err
		}

		if patch.Username != nil {
			principal.Username = *patch.Username
		}
		if patch.RiotID != nil {
			principal.RiotID = pointer.NonZero(*patch.RiotID)
		}
		if patch.RiotPUUID != nil {
			principal.RiotPUUID = pointer.NonZero(*patch.RiotPUUID)
		}
		principal.UpdatedAt = service.now().UTC()

		return repository.UpdateProfile(context, principal)
	})
	if err != nil {
		return nil, storeError(err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "profile_updated", slog.String("account_id", accountID))
	return service.GetProfile(context, accountID)
}

// # Helpers

func normalizePatch(patch Patch) Patch {
	if patch.Username != nil {
		username := strings.TrimSpace(norm.NFC.String(*patch.Username))
		patch.Username = &username
	}
	if patch.RiotID != nil {
		riotID := strings.TrimSpace(norm.NFC.String(*patch.RiotID))
		patch.RiotID = &riotID
	}
	if patch.RiotPUUID != nil {
		puuid := strings.TrimSpace(*patch.RiotPUUID)
		patch.RiotPUUID = &puuid
	}
	return patch
}

func validatePatch(patch Patch) error {
	v := &validate.Validator{}

	if patch.Username != nil {
		v.Required("username", *patch.Username).
			MinLen("username", *patch.Username, minUsernameLength).
			MaxLen("username", *patch.Username, maxUsernameLength)
	}
	if patch.RiotID != nil && *patch.RiotID != "" {
		v.Pattern("riotId", *patch.RiotID, riotIDPattern, "Must look like Name#TAG")
	}
	if patch.RiotPUUID != nil {
		v.MaxLen("riotPuuid", *patch.RiotPUUID, maxRiotPUUIDLength)
	}

	return v.Err()
}

func storeError(err error) error {
	if apperr.IsAppError(err) {
		return err
	}
	return apperr.StoreUnavailable(err)
}
