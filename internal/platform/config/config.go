// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Arena auth API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"3000"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), used for OAuth state.
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Token signing. Access and refresh tokens use distinct secrets so one class
	// can never be replayed as the other.
	JWT JWTConfig `envPrefix:"JWT_"`

	// FrontendURL is the SPA base URL that OAuth callbacks redirect to.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// CORSOrigin lists the comma-separated origins allowed to call the API from a browser.
	CORSOrigin []string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173" envSeparator:","`

	// OAuth providers. A provider without client credentials is disabled.
	Google  ProviderConfig `envPrefix:"GOOGLE_"`
	Discord ProviderConfig `envPrefix:"DISCORD_"`
	Twitch  ProviderConfig `envPrefix:"TWITCH_"`
}

// JWTConfig carries the secrets and lifetimes of both token classes.
type JWTConfig struct {
	Secret           string        `env:"SECRET,required,notEmpty"`
	ExpiresIn        time.Duration `env:"EXPIRES_IN"         envDefault:"168h"`
	RefreshSecret    string        `env:"REFRESH_SECRET,required,notEmpty"`
	RefreshExpiresIn time.Duration `env:"REFRESH_EXPIRES_IN" envDefault:"720h"`
}

// ProviderConfig is the OAuth client registration for one external provider.
type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether the provider has the credentials needed to run a flow.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.ExpiresIn <= 0 || c.JWT.RefreshExpiresIn <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins returns the browser origins accepted by the CORS middleware.
func (c *Config) AllowedOrigins() []string {
	return c.CORSOrigin
}
