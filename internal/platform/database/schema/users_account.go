// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the relational store so that
// query builders never spell identifiers by hand.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	ID          string
	Email       string
	Username    string
	AvatarURL   string
	Role        string
	RiotID      string
	RiotPUUID   string
	CreatedAt   string
	LastLoginAt string
	UpdatedAt   string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Email:       "email",
	Username:    "username",
	AvatarURL:   "avatarurl",
	Role:        "role",
	RiotID:      "riotid",
	RiotPUUID:   "riotpuuid",
	CreatedAt:   "createdat",
	LastLoginAt: "lastloginat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Username, t.AvatarURL, t.Role,
		t.RiotID, t.RiotPUUID, t.CreatedAt, t.LastLoginAt, t.UpdatedAt,
	}
}
