// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth/provider"
)

// TokenIssuer defines the token operations the session layer needs.
// [*sec.TokenService] satisfies it.
type TokenIssuer interface {
	IssuePair(claims sec.Claims) (*sec.TokenPair, error)
	Verify(tokenString string, class sec.TokenClass) (*sec.AuthClaims, error)
}

// Session is the result of a successful authentication.
type Session struct {
	Account account.Snapshot `json:"user"`
	Tokens  *sec.TokenPair   `json:"tokens"`
}

// Service implements the session use cases.
//
// # Statelessness
//
// No session state is persisted. Logout only writes an audit entry; an
// access token stays valid until it expires.
type Service struct {
	resolver *Resolver
	store    account.Store
	tokens   TokenIssuer
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(resolver *Resolver, store account.Store, tokens TokenIssuer) *Service {
	return &Service{resolver: resolver, store: store, tokens: tokens}
}

/*
Authenticate issues a fresh token pair for an existing account.

Returns:
  - *Session: Account snapshot plus tokens
  - error: apperr.NotFound if the account no longer exists
*/
func (service *Service) Authenticate(context context.Context, accountID string) (*Session, error) {
	principal, err := service.store.FindAccountByID(context, accountID)
	if err != nil {
		return nil, storeError(err)
	}

	pair, err := service.tokens.IssuePair(principal.Claims())
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_issue_failed: %w", err))
	}

	return &Session{Account: principal.Snapshot(), Tokens: pair}, nil
}

// SignIn resolves the provider profile and authenticates the resulting account.
func (service *Service) SignIn(context context.Context, profile provider.Profile) (*Session, error) {
	principal, err := service.resolver.Resolve(context, profile)
	if err != nil {
		return nil, err
	}
	return service.Authenticate(context, principal.ID)
}

/*
Refresh exchanges a refresh token for a new pair carrying the account's current role.

Every verification or lookup failure collapses into the same Unauthorized error
so callers cannot probe why a token was rejected.

Returns:
  - *sec.TokenPair: The rotated pair
  - error: apperr.BadRequest for an empty token, apperr.Unauthorized otherwise
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*sec.TokenPair, error) {
	logger := ctxutil.GetLogger(context)

	// ── 1. Input Check ────────────────────────────────────────────────────
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.BadRequest("Refresh token is required")
	}

	// ── 2. Token Verification ─────────────────────────────────────────────
	claims, err := service.tokens.Verify(refreshToken, sec.ClassRefresh)
	if err != nil {
		logger.WarnContext(context, "refresh_token_rejected", slog.String("reason", err.Error()))
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	// ── 3. Principal Lookup ───────────────────────────────────────────────
	principal, err := service.store.FindAccountByID(context, claims.AccountID)
	if err != nil {
		logger.WarnContext(context, "refresh_token_rejected",
			slog.String("account_id", claims.AccountID),
			slog.String("reason", err.Error()),
		)
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	// ── 4. Rotation ───────────────────────────────────────────────────────
	pair, err := service.tokens.IssuePair(principal.Claims())
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_failed: %w", err))
	}

	logger.InfoContext(context, "access_token_refreshed", slog.String("account_id", principal.ID))
	return pair, nil
}

// CurrentAccount returns the snapshot of the account behind the request.
func (service *Service) CurrentAccount(context context.Context, accountID string) (*account.Snapshot, error) {
	principal, err := service.store.FindAccountByID(context, accountID)
	if err != nil {
		return nil, storeError(err)
	}
	snapshot := principal.Snapshot()
	return &snapshot, nil
}

// Logout records that the account signed out. Tokens are not revoked.
func (service *Service) Logout(context context.Context, accountID string) {
	ctxutil.GetLogger(context).InfoContext(context, "account_logged_out", slog.String("account_id", accountID))
}

// DeleteAccount removes the account and every identity linked to it.
func (service *Service) DeleteAccount(context context.Context, accountID string) error {
	if err := service.store.DeleteAccount(context, accountID); err != nil {
		return storeError(err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_deleted", slog.String("account_id", accountID))
	return nil
}

// storeError passes AppErrors through and marks anything else as a store outage.
func storeError(err error) error {
	if apperr.IsAppError(err) {
		return err
	}
	return apperr.StoreUnavailable(err)
}
