// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/arena/internal/platform/middleware"
	requestutil "github.com/taibuivan/arena/internal/platform/request"
	"github.com/taibuivan/arena/internal/platform/respond"
	"github.com/taibuivan/arena/internal/platform/validate"
	"github.com/taibuivan/arena/internal/users/account"
)

// Handler implements the /users endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the profile endpoints. Every route requires
// an authenticated account.
//
// # Endpoints
//   - GET    /me                           : Account plus identities.
//   - PATCH  /me                           : Update username and riot fields.
//   - GET    /me/oauth-accounts            : Linked identities.
//   - DELETE /me/oauth-accounts/{provider} : Unlink one identity.
//   - GET    /{ownerId}/oauth-accounts     : Another account's identities (owner or admin).
func (handler *Handler) Routes(guard *middleware.Guard) chi.Router {
	router := chi.NewRouter()
	router.Use(guard.Required)

	router.Get("/me", handler.getProfile)
	router.Patch("/me", handler.updateProfile)
	router.Get("/me/oauth-accounts", handler.listOwnIdentities)
	router.Delete("/me/oauth-accounts/{provider}", handler.unlink)

	router.With(middleware.RequireOwnership("ownerId")).
		Get("/{ownerId}/oauth-accounts", handler.listIdentities)

	return router
}

// getProfile handles GET /api/users/me.
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.service.GetProfile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// updateProfile handles PATCH /api/users/me.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 1. Payload Extraction ─────────────────────────────────────────────
	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Application Execution ──────────────────────────────────────────
	profile, err := handler.service.UpdateProfile(request.Context(), accountID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// listOwnIdentities handles GET /api/users/me/oauth-accounts.
func (handler *Handler) listOwnIdentities(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.writeIdentities(writer, request, accountID)
}

// listIdentities handles GET /api/users/{ownerId}/oauth-accounts.
func (handler *Handler) listIdentities(writer http.ResponseWriter, request *http.Request) {
	ownerID := requestutil.Param(request, "ownerId")
	if err := (&validate.Validator{}).UUID("ownerId", ownerID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.writeIdentities(writer, request, ownerID)
}

func (handler *Handler) writeIdentities(writer http.ResponseWriter, request *http.Request, accountID string) {
	identities, err := handler.service.ListIdentities(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, identities)
}

// unlink handles DELETE /api/users/me/oauth-accounts/{provider}.
//
// # Returns
//   - HTTP 200 with a confirmation message.
//   - HTTP 400 for an unknown provider (VALIDATION_ERROR) or when it is the last identity.
//   - HTTP 404 when no identity for the provider is linked.
func (handler *Handler) unlink(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	name := strings.ToLower(requestutil.Param(request, "provider"))
	if err := (&validate.Validator{}).OneOf("provider", name, account.ProviderNames()...).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	provider, _ := account.ParseProvider(name)

	if err := handler.service.UnlinkIdentity(request.Context(), accountID, provider); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "OAuth account unlinked successfully")
}
