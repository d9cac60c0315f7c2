// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/arena/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	return WrapResource(err, action, "")
}

// WrapResource behaves like [Wrap] but names the missing resource on pgx.ErrNoRows.
func WrapResource(err error, action, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		if resource == "" {
			return ErrNotFound
		}
		return apperr.NotFound(resource)
	}

	// 2. A malformed key can never match a row
	if resource != "" && hasCode(err, pgerrcode.InvalidTextRepresentation) {
		return apperr.NotFound(resource).WithCause(err)
	}

	// 3. Unique constraint violations surface as conflicts
	if IsUniqueViolation(err) {
		return apperr.Conflict("Resource already exists").
			WithCause(fmt.Errorf("postgres_%s_failed: constraint %s: %w", action, ConstraintName(err), err))
	}

	// 4. Anything else is a storage failure
	return fmt.Errorf("postgres_%s_failed: %w", action, err)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// ConstraintName returns the name of the violated constraint, or "" if err is not a Postgres error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
