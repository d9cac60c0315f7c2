// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/taibuivan/arena/internal/users/account"
)

// errMissingSubject is returned when a userinfo payload has no subject id.
var errMissingSubject = errors.New("userinfo missing subject id")

// # Google

// GoogleSpec talks to the Google OpenID Connect userinfo endpoint.
func GoogleSpec() Spec {
	return Spec{
		Provider: account.ProviderGoogle,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:  "https://oauth2.googleapis.com/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes:      []string{"openid", "profile", "email"},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		Decode:      decodeGoogle,
	}
}

func decodeGoogle(body []byte) (*Profile, error) {
	var payload struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Subject == "" {
		return nil, errMissingSubject
	}

	return &Profile{
		ProviderID:    payload.Subject,
		Email:         payload.Email,
		EmailVerified: payload.EmailVerified,
		DisplayName:   payload.Name,
		AvatarURL:     payload.Picture,
	}, nil
}

// # Discord

// DiscordSpec talks to the Discord current-user endpoint.
func DiscordSpec() Spec {
	return Spec{
		Provider: account.ProviderDiscord,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://discord.com/oauth2/authorize",
			TokenURL:  "https://discord.com/api/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes:      []string{"identify", "email"},
		UserInfoURL: "https://discord.com/api/users/@me",
		Decode:      decodeDiscord,
	}
}

func decodeDiscord(body []byte) (*Profile, error) {
	var payload struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Global   string `json:"global_name"`
		Email    string `json:"email"`
		Verified bool   `json:"verified"`
		Avatar   string `json:"avatar"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, errMissingSubject
	}

	profile := &Profile{
		ProviderID:    payload.ID,
		Email:         payload.Email,
		EmailVerified: payload.Verified,
		DisplayName:   payload.Username,
	}
	if payload.Avatar != "" {
		profile.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", payload.ID, payload.Avatar)
	}

	return profile, nil
}

// # Twitch

// TwitchSpec talks to the Twitch Helix users endpoint, which requires the Client-Id header.
func TwitchSpec() Spec {
	return Spec{
		Provider: account.ProviderTwitch,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://id.twitch.tv/oauth2/authorize",
			TokenURL:  "https://id.twitch.tv/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes:       []string{"user:read:email"},
		UserInfoURL:  "https://api.twitch.tv/helix/users",
		SendClientID: true,
		Decode:       decodeTwitch,
	}
}

func decodeTwitch(body []byte) (*Profile, error) {
	var payload struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			Email           string `json:"email"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 || payload.Data[0].ID == "" {
		return nil, errMissingSubject
	}

	user := payload.Data[0]
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Login
	}

	// Helix only exposes the email once Twitch has verified it.
	return &Profile{
		ProviderID:    user.ID,
		Email:         user.Email,
		EmailVerified: user.Email != "",
		DisplayName:   displayName,
		AvatarURL:     user.ProfileImageURL,
	}, nil
}

// SpecFor returns the built-in spec of a provider.
func SpecFor(provider account.Provider) (Spec, bool) {
	switch provider {
	case account.ProviderGoogle:
		return GoogleSpec(), true
	case account.ProviderDiscord:
		return DiscordSpec(), true
	case account.ProviderTwitch:
		return TwitchSpec(), true
	default:
		return Spec{}, false
	}
}
