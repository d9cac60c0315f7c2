// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserIdentityTable represents the 'users.identity' table
type UserIdentityTable struct {
	Table      string
	ID         string
	AccountID  string
	Provider   string
	ProviderID string
	Email      string
	CreatedAt  string
}

// UserIdentity is the schema definition for users.identity
var UserIdentity = UserIdentityTable{
	Table:      "users.identity",
	ID:         "id",
	AccountID:  "accountid",
	Provider:   "provider",
	ProviderID: "providerid",
	Email:      "email",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names in scan order.
func (t UserIdentityTable) Columns() []string {
	return []string{t.ID, t.AccountID, t.Provider, t.ProviderID, t.Email, t.CreatedAt}
}
