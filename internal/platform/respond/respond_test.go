// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/ctxutil"
	"github.com/taibuivan/arena/internal/platform/respond"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestRespond_OK checks the success envelope carries the data payload.
*/
func TestRespond_OK(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.OK(recorder, map[string]string{"id": "acc-1"})

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "acc-1", body["data"].(map[string]any)["id"])
}

/*
TestRespond_Message checks the message-only envelope.
*/
func TestRespond_Message(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Message(recorder, "Logged out successfully")

	body := decode(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Logged out successfully", body["message"])
}

/*
TestRespond_Error verifies AppErrors keep their status and unknown errors collapse to 500.
*/
func TestRespond_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app_error", apperr.NotFound("Account"), http.StatusNotFound, apperr.CodeNotFound},
		{"wrapped_app_error", errors.Join(errors.New("ctx"), apperr.Forbidden("nope")), http.StatusForbidden, apperr.CodeForbidden},
		{"plain_error", errors.New("db exploded"), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			respond.Error(recorder, request, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			body := decode(t, recorder)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotContains(t, body, "debug")
		})
	}
}

/*
TestRespond_ErrorDebug ensures the cause is exposed only when the debug flag is set.
*/
func TestRespond_ErrorDebug(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithDebug(request.Context(), true))

	respond.Error(recorder, request, errors.New("db exploded"))

	body := decode(t, recorder)
	debug, ok := body["debug"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db exploded", debug["cause"])
}
