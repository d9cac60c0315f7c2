// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/constants"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/respond"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
// [*sec.TokenService] satisfies it.
type TokenVerifier interface {
	Verify(tokenString string, class sec.TokenClass) (*sec.AuthClaims, error)
}

// AccountLoader resolves the principal named by a verified token.
type AccountLoader interface {
	FindAccountByID(context context.Context, id string) (*account.Account, error)
}

// # Access Guard

// Guard authenticates bearer credentials and attaches the [*account.Account]
// to the request context.
type Guard struct {
	verifier TokenVerifier
	accounts AccountLoader
}

// NewGuard creates a new Guard.
func NewGuard(verifier TokenVerifier, accounts AccountLoader) *Guard {
	return &Guard{verifier: verifier, accounts: accounts}
}

// Required rejects the request with 401 unless it carries a valid access token
// for an account that still exists.
//
// # Flow
//  1. Extract the bearer token from the Authorization header.
//  2. Verify it as an access token.
//  3. Load the account named by the claims.
//  4. Inject the account into the request context.
func (guard *Guard) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, err := guard.authenticate(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// Optional attaches the account when the credential checks out and otherwise
// proceeds anonymously. It never rejects a request.
func (guard *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, err := guard.authenticate(request)
		if err != nil {
			next.ServeHTTP(writer, request)
			return
		}
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// authenticate returns a context carrying the principal, or the error to report.
func (guard *Guard) authenticate(request *http.Request) (context.Context, error) {
	ctx := request.Context()

	// ── 1. Bearer Extraction ──────────────────────────────────────────────
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	token, ok := sec.ExtractBearer(header)
	if !ok {
		return nil, apperr.Unauthorized("Invalid authorization format")
	}

	// ── 2. Token Verification ─────────────────────────────────────────────
	claims, err := guard.verifier.Verify(token, sec.ClassAccess)
	if err != nil {
		if errors.Is(err, sec.ErrExpiredCredential) {
			return nil, apperr.Unauthorized("Token expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}

	// ── 3. Principal Lookup ───────────────────────────────────────────────
	principal, err := guard.accounts.FindAccountByID(ctx, claims.AccountID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Account no longer exists")
		}
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.StoreUnavailable(err)
	}

	// ── 4. Context Injection ──────────────────────────────────────────────
	ctx = ctxutil.WithAccount(ctx, principal)
	ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("account_id", principal.ID)))

	return ctx, nil
}

// # Authorization Checks

// RequireRole blocks requests whose account role is not in the allowed set.
//
// # Usage
//
// Must be registered in the router AFTER [Guard.Required] or [Guard.Optional].
// Roles are flat, so admin passes only when listed.
func RequireRole(roles ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetAccount(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.In(roles...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireOwnership blocks requests unless the account owns the resource or is an admin.
//
// The owner id is read from the chi path parameter named field, then from the
// top-level JSON body field of the same name. The body is restored for the
// downstream handler.
func RequireOwnership(field string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetAccount(request.Context())
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			ownerID := chi.URLParam(request, field)
			if ownerID == "" {
				ownerID = ownerFromBody(request, field)
			}

			if ownerID == "" {
				respond.Error(writer, request, apperr.Forbidden("Resource owner could not be determined"))
				return
			}

			if ownerID != principal.ID && !principal.IsAdmin() {
				respond.Error(writer, request, apperr.Forbidden("You do not have access to this resource"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// ownerFromBody peeks at a JSON body for field and puts the bytes back.
func ownerFromBody(request *http.Request, field string) string {
	if request.Body == nil || request.Body == http.NoBody {
		return ""
	}

	payload, err := io.ReadAll(io.LimitReader(request.Body, constants.MaxRequestBodyBytes))
	_ = request.Body.Close()
	request.Body = io.NopCloser(bytes.NewReader(payload))
	if err != nil || len(payload) == 0 {
		return ""
	}

	var document map[string]any
	if err := json.Unmarshal(payload, &document); err != nil {
		return ""
	}

	ownerID, _ := document[field].(string)
	return ownerID
}
