// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"
)

// # Account Data Access

// Repository defines the data access contract for accounts and their identities.
//
// # Errors
//
// Lookups return [apperr.NotFound] when the row is absent. Writes that break a
// uniqueness invariant return an error carrying [apperr.CodeConflict]. Any other
// error means the store could not serve the call.
type Repository interface {

	/*
		FindAccountByID returns the account with the given ID.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindAccountByID(context context.Context, id string) (*Account, error)

	/*
		FindAccountByEmail returns the account registered with the normalized email.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindAccountByEmail(context context.Context, email string) (*Account, error)

	/*
		FindIdentity returns the identity linked to (provider, providerID).

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindIdentity(context context.Context, provider Provider, providerID string) (*Identity, error)

	// ListIdentities returns the identities owned by an account, oldest first.
	ListIdentities(context context.Context, accountID string) ([]Identity, error)

	/*
		LockAccount takes a row lock on the account for the rest of the transaction.

		Used by read-then-write operations (unlink) so concurrent callers cannot
		both pass the retention check.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	LockAccount(context context.Context, id string) error

	/*
		CreateAccount persists a new account together with its first identity.

		Both rows are written atomically; no Account-without-Identity state is
		ever observable.

		Returns:
		  - error: Conflict on duplicate email or identity, or storage failures
	*/
	CreateAccount(context context.Context, account *Account, first *Identity) error

	// CreateIdentity links a new provider identity to an existing account.
	CreateIdentity(context context.Context, identity *Identity) error

	// TouchLastLogin stamps the last-authenticated time of an account.
	TouchLastLogin(context context.Context, accountID string, at time.Time) error

	// UpdateProfile persists the mutable profile fields (username, riot ids).
	UpdateProfile(context context.Context, account *Account) error

	// DeleteIdentity removes a single identity row.
	DeleteIdentity(context context.Context, identityID string) error

	/*
		DeleteAccount removes the account and, by cascade, all of its identities.

		Returns:
		  - error: apperr.NotFound if the account does not exist
	*/
	DeleteAccount(context context.Context, id string) error
}

// # Transactions

// Store is a [Repository] that can also run a unit of work atomically.
type Store interface {
	Repository

	/*
		InTx runs fn against a transaction-scoped repository.

		The transaction commits when fn returns nil and rolls back otherwise.
		The error returned by fn is passed through unchanged.
	*/
	InTx(context context.Context, fn func(repository Repository) error) error
}
