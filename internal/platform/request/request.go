// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/constants"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/validate"
	"github.com/taibuivan/arena/internal/users/account"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

The body is capped at [constants.MaxRequestBodyBytes]; a larger body fails like
malformed JSON.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	if request.Body == nil {
		return validate.ErrInvalidJSON
	}

	body := http.MaxBytesReader(nil, request.Body, constants.MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredAccount ensures the request is authenticated and returns the account.

Returns:
  - *account.Account: The authenticated principal
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredAccount(request *http.Request) (*account.Account, error) {

	// Get the principal
	principal := ctxutil.GetAccount(request.Context())

	// If the caller is not authenticated, return an error
	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return principal, nil
}

/*
RequiredAccountID returns the ID of the currently authenticated account.

Returns:
  - string: Account UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredAccountID(request *http.Request) (string, error) {
	principal, err := RequiredAccount(request)
	if err != nil {
		return "", err
	}
	return principal.ID, nil
}
