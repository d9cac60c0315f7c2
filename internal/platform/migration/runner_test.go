// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestDriverURL verifies DSNs are rewritten to the pgx5 scheme.
*/
func TestDriverURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@db:5432/arena?sslmode=disable", "pgx5://u:p@db:5432/arena?sslmode=disable"},
		{"postgresql://u@db/arena", "pgx5://u@db/arena"},
		{"pgx5://u@db/arena", "pgx5://u@db/arena"},
		{"host=db user=u", "host=db user=u"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, DriverURL(tt.dsn))
		})
	}
}
