// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/arena/internal/platform/ctxkey"
	"github.com/taibuivan/arena/internal/users/account"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// WithDebug marks the request as eligible for debug details in error responses.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxkey.KeyDebug, enabled)
}

// IsDebug reports whether [WithDebug] enabled debug details for this request.
func IsDebug(ctx context.Context) bool {
	enabled, _ := ctx.Value(ctxkey.KeyDebug).(bool)
	return enabled
}

// # Identity & Access

// WithAccount returns a new context with the authenticated account attached.
func WithAccount(ctx context.Context, principal *account.Account) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAccount, principal)
}

// GetAccount retrieves the authenticated [*account.Account], or nil for anonymous requests.
func GetAccount(ctx context.Context) *account.Account {
	principal, ok := ctx.Value(ctxkey.KeyAccount).(*account.Account)
	if !ok {
		return nil
	}
	return principal
}
