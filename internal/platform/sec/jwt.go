// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (JWT signing, random tokens) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces declared by the consumers.
//
// Tokens are stateless: nothing is persisted and there is no revocation list.
// An access token stays valid until its expiry even after logout.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/arena/pkg/uuid"
)

// Token dates are encoded with millisecond precision so that exp lands exactly
// on issue time plus lifetime instead of the whole second below it.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// # Token Classes

// TokenClass selects the secret and lifetime used to sign or verify a token.
type TokenClass string

const (
	// ClassAccess tokens authorize API calls.
	ClassAccess TokenClass = "access"

	// ClassRefresh tokens can only be exchanged for a new pair.
	ClassRefresh TokenClass = "refresh"
)

// # Verification Errors

var (
	// ErrExpiredCredential is returned when a well-formed token is past its expiry.
	ErrExpiredCredential = errors.New("sec: credential expired")

	// ErrMalformedCredential covers bad signatures, foreign secrets, and broken structure.
	ErrMalformedCredential = errors.New("sec: credential malformed")
)

// # Claims

// Claims is the identity embedded in every token.
type Claims struct {
	AccountID string
	Email     string
	Role      Role
}

// AuthClaims represents the payload embedded inside a signed token.
//
// Registered claims carry iat, exp, iss and a random jti so two tokens issued in
// the same second for the same account never collide.
type AuthClaims struct {
	jwt.RegisteredClaims

	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// Identity strips the timing fields and returns the embedded claim set.
func (c *AuthClaims) Identity() Claims {
	return Claims{AccountID: c.AccountID, Email: c.Email, Role: c.Role}
}

// TokenPair is the credential pair handed to the client after authentication.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// # Token Service

// TokenSettings configures one token class.
type TokenSettings struct {
	Secret string
	TTL    time.Duration
}

// Option customizes a [TokenService].
type Option func(*TokenService)

// WithClock replaces the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(service *TokenService) {
		service.now = now
	}
}

// TokenService handles generation and verification of HS256 tokens.
//
// # Concurrency
//
// TokenService is immutable after construction and safe for concurrent use.
type TokenService struct {
	access  TokenSettings
	refresh TokenSettings
	issuer  string
	now     func() time.Time
}

// NewTokenService creates a new TokenService.
//
// Both classes need a non-empty secret and a positive lifetime, and the secrets
// must differ.
func NewTokenService(access, refresh TokenSettings, issuer string, opts ...Option) (*TokenService, error) {
	if access.Secret == "" || refresh.Secret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	if access.Secret == refresh.Secret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}

	service := &TokenService{
		access:  access,
		refresh: refresh,
		issuer:  issuer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// IssueAccessToken signs a short-lived access token for the claim set.
func (service *TokenService) IssueAccessToken(claims Claims) (string, error) {
	return service.issue(claims, ClassAccess)
}

// IssueRefreshToken signs a long-lived refresh token for the claim set.
func (service *TokenService) IssueRefreshToken(claims Claims) (string, error) {
	return service.issue(claims, ClassRefresh)
}

// IssuePair produces both tokens for the same claim set.
func (service *TokenService) IssuePair(claims Claims) (*TokenPair, error) {
	accessToken, err := service.IssueAccessToken(claims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.IssueRefreshToken(claims)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Verify checks the signature and validity of a token against the class's secret.
//
// It returns an error wrapping [ErrExpiredCredential] when the token is past its
// expiry and [ErrMalformedCredential] for every other failure.
func (service *TokenService) Verify(tokenString string, class TokenClass) (*AuthClaims, error) {
	settings, err := service.settings(class)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(settings.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredCredential, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrMalformedCredential)
	}

	return claims, nil
}

// issue signs the claim set with the secret and lifetime of class.
func (service *TokenService) issue(claims Claims, class TokenClass) (string, error) {
	settings, err := service.settings(class)
	if err != nil {
		return "", err
	}

	currentTime := service.now()
	payload := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   claims.AccountID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(settings.TTL)),
		},
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signedToken, err := token.SignedString([]byte(settings.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign %s token: %w", class, err)
	}

	return signedToken, nil
}

func (service *TokenService) settings(class TokenClass) (TokenSettings, error) {
	switch class {
	case ClassAccess:
		return service.access, nil
	case ClassRefresh:
		return service.refresh, nil
	default:
		return TokenSettings{}, fmt.Errorf("%w: unknown token class %q", ErrMalformedCredential, class)
	}
}

// # Header Parsing

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header.
//
// It reports false for an absent header, a scheme other than Bearer, or anything
// other than exactly two space-separated segments. It never fails.
func ExtractBearer(headerValue string) (string, bool) {
	if headerValue == "" {
		return "", false
	}

	parts := strings.Split(headerValue, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
