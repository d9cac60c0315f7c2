// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/constants"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/middleware"
	requestutil "github.com/taibuivan/arena/internal/platform/request"
	"github.com/taibuivan/arena/internal/platform/respond"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/auth/provider"
)

// Error codes placed in the ?error= parameter of the frontend callback.
const (
	callbackErrorDenied   = "access_denied"
	callbackErrorState    = "invalid_state"
	callbackErrorCode     = "missing_code"
	callbackErrorProvider = "provider_error"
)

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// The OAuth handshake (redirect and callback) plus the token session
// endpoints used by the SPA.
type Handler struct {
	service     *Service
	providers   *provider.Registry
	states      provider.StateStore
	frontendURL string
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, providers *provider.Registry, states provider.StateStore, frontendURL string) *Handler {
	return &Handler{
		service:     service,
		providers:   providers,
		states:      states,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - GET    /providers           : Lists enabled OAuth providers.
//   - GET    /me                  : Current account (auth required).
//   - POST   /refresh             : Rotates a refresh token into a new pair.
//   - POST   /logout              : Audit-only logout (auth required).
//   - DELETE /account             : Deletes the account (auth required).
//   - GET    /{provider}          : Redirects to the provider consent screen.
//   - GET    /{provider}/callback : Finishes the OAuth flow.
func (handler *Handler) Routes(guard *middleware.Guard) chi.Router {
	router := chi.NewRouter()

	router.Get("/providers", handler.listProviders)
	router.Post("/refresh", handler.refresh)

	router.Group(func(protected chi.Router) {
		protected.Use(guard.Required)
		protected.Get("/me", handler.me)
		protected.Post("/logout", handler.logout)
		protected.Delete("/account", handler.deleteAccount)
	})

	router.Get("/{provider}", handler.begin)
	router.Get("/{provider}/callback", handler.callback)

	return router
}

// # OAuth Handshake

// begin handles GET /api/auth/{provider}.
//
// # Flow
//  1. Resolve the enabled adapter (404 otherwise).
//  2. Generate a random state and a PKCE verifier and store them for 10 minutes.
//  3. Redirect the browser to the provider.
func (handler *Handler) begin(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	// ── 1. Adapter Lookup ─────────────────────────────────────────────────
	adapter, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. CSRF State & PKCE ──────────────────────────────────────────────
	state, err := sec.GenerateSecureToken(constants.OAuthStateLength)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	verifier := oauth2.GenerateVerifier()
	flow := provider.Flow{Provider: adapter.Name(), Verifier: verifier, CreatedAt: time.Now().UTC()}

	if err := handler.states.Save(ctx, state, flow, constants.OAuthStateTTL); err != nil {
		respond.Error(writer, request, apperr.StoreUnavailable(err))
		return
	}

	// ── 3. Redirect ───────────────────────────────────────────────────────
	http.Redirect(writer, request, adapter.AuthCodeURL(state, verifier), http.StatusFound)
}

// callback handles GET /api/auth/{provider}/callback.
//
// The caller is a browser mid-redirect, so every failure becomes a redirect to
// the frontend with an error code instead of a JSON error.
func (handler *Handler) callback(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)
	query := request.URL.Query()

	// ── 1. Provider Outcome ───────────────────────────────────────────────
	if providerError := query.Get("error"); providerError != "" {
		logger.WarnContext(ctx, "oauth_callback_denied", slog.String("provider_error", providerError))
		handler.redirectError(writer, request, callbackErrorDenied)
		return
	}

	adapter, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		handler.redirectError(writer, request, callbackErrorProvider)
		return
	}

	// ── 2. State Redemption ───────────────────────────────────────────────
	flow, err := handler.states.Consume(ctx, query.Get("state"))
	if err != nil {
		if !errors.Is(err, provider.ErrStateNotFound) {
			logger.ErrorContext(ctx, "oauth_state_lookup_failed", slog.Any("error", err))
		}
		handler.redirectError(writer, request, callbackErrorState)
		return
	}

	if flow.Provider != adapter.Name() {
		handler.redirectError(writer, request, callbackErrorState)
		return
	}

	code := query.Get("code")
	if code == "" {
		handler.redirectError(writer, request, callbackErrorCode)
		return
	}

	// ── 3. Code Exchange ──────────────────────────────────────────────────
	profile, err := adapter.Exchange(ctx, code, flow.Verifier)
	if err != nil {
		logger.ErrorContext(ctx, "oauth_exchange_failed",
			slog.String("provider", string(adapter.Name())),
			slog.Any("error", err),
		)
		handler.redirectError(writer, request, callbackErrorProvider)
		return
	}

	// ── 4. Resolution & Token Issuance ────────────────────────────────────
	session, err := handler.service.SignIn(ctx, *profile)
	if err != nil {
		errorCode := apperr.CodeInternal
		if appError := apperr.As(err); appError != nil {
			errorCode = appError.Code
		}
		logger.ErrorContext(ctx, "oauth_sign_in_failed", slog.String("code", errorCode), slog.Any("error", err))
		handler.redirectError(writer, request, strings.ToLower(errorCode))
		return
	}

	handler.redirect(writer, request, url.Values{
		"accessToken":  {session.Tokens.AccessToken},
		"refreshToken": {session.Tokens.RefreshToken},
	})
}

func (handler *Handler) redirectError(writer http.ResponseWriter, request *http.Request, code string) {
	handler.redirect(writer, request, url.Values{"error": {code}})
}

func (handler *Handler) redirect(writer http.ResponseWriter, request *http.Request, params url.Values) {
	target := handler.frontendURL + constants.FrontendCallbackPath + "?" + params.Encode()
	http.Redirect(writer, request, target, http.StatusFound)
}

// # Session Endpoints

// listProviders handles GET /api/auth/providers.
func (handler *Handler) listProviders(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.providers.Enabled())
}

// me handles GET /api/auth/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot, err := handler.service.CurrentAccount(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshot)
}

// refreshRequest is the JSON payload of POST /api/auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refresh handles POST /api/auth/refresh.
//
// # Returns
//   - HTTP 200 with a new token pair.
//   - HTTP 400 if the refresh token is missing.
//   - HTTP 401 if the refresh token is invalid or its account is gone.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {

	// ── 1. Payload Extraction ─────────────────────────────────────────────
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.BadRequest("Refresh token is required"))
		return
	}

	// ── 2. Application Execution ──────────────────────────────────────────
	pair, err := handler.service.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

// logout handles POST /api/auth/logout.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.service.Logout(request.Context(), accountID)
	respond.Message(writer, "Logged out successfully")
}

// deleteAccount handles DELETE /api/auth/account.
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteAccount(request.Context(), accountID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Account deleted successfully")
}
