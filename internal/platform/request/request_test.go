// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/arena/internal/platform/apperr"
	"github.com/taibuivan/arena/internal/platform/constants"
	requestutil "github.com/taibuivan/arena/internal/platform/request"
)

type payload struct {
	Name string `json:"name"`
}

/*
TestDecodeJSON covers valid, malformed and oversized bodies.
*/
func TestDecodeJSON(t *testing.T) {
	oversized := `{"name":"` + strings.Repeat("x", constants.MaxRequestBodyBytes) + `"}`

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid", `{"name":"arena"}`, "arena", false},
		{"malformed", `{"name":`, "", true},
		{"oversized", oversized, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var got payload
			err := requestutil.DecodeJSON(request, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}
