// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Account Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted platform access, bypasses ownership checks
	RoleAdmin Role = "admin"

	// Can create and run tournaments
	RoleOrganizer Role = "organizer"

	// Default role for every account created through OAuth
	RolePlayer Role = "player"
)

// # Role Checks

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RolePlayer:
		return true
	default:
		return false
	}
}

// In reports whether r is a member of the allowed set.
//
// Roles are flat: there is no hierarchy, so an admin only passes a check that
// lists admin explicitly.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
