// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/arena/internal/platform/database/schema"
	"github.com/taibuivan/arena/internal/platform/dberr"
)

// querier is the subset of pgx shared by [pgxpool.Pool] and [pgx.Tx].
type querier interface {
	Exec(context context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(context context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(context context.Context, sql string, args ...any) pgx.Row
	Begin(context context.Context) (pgx.Tx, error)
}

// PostgresRepository implements [Repository] against the users schema.
type PostgresRepository struct {
	db querier
}

// PostgresStore implements [Store] on top of a connection pool.
type PostgresStore struct {
	*PostgresRepository
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		PostgresRepository: &PostgresRepository{db: pool},
		pool:               pool,
	}
}

// InTx runs fn inside a single database transaction.
func (store *PostgresStore) InTx(context context.Context, fn func(repository Repository) error) error {
	return pgx.BeginFunc(context, store.pool, func(tx pgx.Tx) error {
		return fn(&PostgresRepository{db: tx})
	})
}

// # Queries

var (
	accountColumns  = strings.Join(schema.UserAccount.Columns(), ", ")
	identityColumns = strings.Join(schema.UserIdentity.Columns(), ", ")
)

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.AvatarURL,
		&account.Role,
		&account.RiotID,
		&account.RiotPUUID,
		&account.CreatedAt,
		&account.LastLoginAt,
		&account.UpdatedAt,
	)
	return account, err
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	identity := &Identity{}
	err := row.Scan(
		&identity.ID,
		&identity.AccountID,
		&identity.Provider,
		&identity.ProviderID,
		&identity.Email,
		&identity.CreatedAt,
	)
	return identity, err
}

/*
FindAccountByID retrieves an account by its primary key.

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or wrapped storage failures
*/
func (repository *PostgresRepository) FindAccountByID(context context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountColumns, schema.UserAccount.Table, schema.UserAccount.ID,
	)

	account, err := scanAccount(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.WrapResource(err, "account_find_by_id", "Account")
	}
	return account, nil
}

/*
FindAccountByEmail retrieves an account by its unique email address.

Parameters:
  - email: Already normalized via [NormalizeEmail]

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or wrapped storage failures
*/
func (repository *PostgresRepository) FindAccountByEmail(context context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountColumns, schema.UserAccount.Table, schema.UserAccount.Email,
	)

	account, err := scanAccount(repository.db.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.WrapResource(err, "account_find_by_email", "Account")
	}
	return account, nil
}

/*
FindIdentity retrieves the identity row for a provider subject.

Returns:
  - *Identity: Hydrated entity
  - error: apperr.NotFound or wrapped storage failures
*/
func (repository *PostgresRepository) FindIdentity(context context.Context, provider Provider, providerID string) (*Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		identityColumns, schema.UserIdentity.Table, schema.UserIdentity.Provider, schema.UserIdentity.ProviderID,
	)

	identity, err := scanIdentity(repository.db.QueryRow(context, query, provider, providerID))
	if err != nil {
		return nil, dberr.WrapResource(err, "identity_find", "Identity")
	}
	return identity, nil
}

// ListIdentities returns every identity of the account ordered by link time.
func (repository *PostgresRepository) ListIdentities(context context.Context, accountID string) ([]Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		identityColumns, schema.UserIdentity.Table, schema.UserIdentity.AccountID,
		schema.UserIdentity.CreatedAt, schema.UserIdentity.ID,
	)

	rows, err := repository.db.Query(context, query, accountID)
	if err != nil {
		return nil, dberr.Wrap(err, "identity_list")
	}
	defer rows.Close()

	identities := []Identity{}
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "identity_scan")
		}
		identities = append(identities, *identity)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "identity_list")
	}

	return identities, nil
}

// LockAccount takes a FOR UPDATE lock on the account row.
func (repository *PostgresRepository) LockAccount(context context.Context, id string) error {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		schema.UserAccount.ID, schema.UserAccount.Table, schema.UserAccount.ID,
	)

	var locked string
	err := repository.db.QueryRow(context, query, id).Scan(&locked)
	return dberr.WrapResource(err, "account_lock", "Account")
}

/*
CreateAccount inserts the account and its first identity in one transaction.

When called on a transaction-scoped repository the insert runs in a savepoint
of the outer transaction.

Returns:
  - error: apperr.Conflict on unique violations or wrapped storage failures
*/
func (repository *PostgresRepository) CreateAccount(context context.Context, account *Account, first *Identity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		schema.UserAccount.Table, accountColumns,
	)

	return pgx.BeginFunc(context, repository.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(context, query,
			account.ID,
			account.Email,
			account.Username,
			account.AvatarURL,
			account.Role,
			account.RiotID,
			account.RiotPUUID,
			account.CreatedAt,
			account.LastLoginAt,
			account.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "account_create")
		}

		return (&PostgresRepository{db: tx}).CreateIdentity(context, first)
	})
}

// CreateIdentity inserts a new identity row for an existing account.
func (repository *PostgresRepository) CreateIdentity(context context.Context, identity *Identity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.UserIdentity.Table, identityColumns,
	)

	_, err := repository.db.Exec(context, query,
		identity.ID,
		identity.AccountID,
		identity.Provider,
		identity.ProviderID,
		identity.Email,
		identity.CreatedAt,
	)
	return dberr.Wrap(err, "identity_create")
}

// TouchLastLogin stamps lastLoginAt on the account.
func (repository *PostgresRepository) TouchLastLogin(context context.Context, accountID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LastLoginAt, schema.UserAccount.ID,
	)

	cmd, err := repository.db.Exec(context, query, accountID, at)
	if err != nil {
		return dberr.Wrap(err, "account_touch_last_login")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.WrapResource(pgx.ErrNoRows, "account_touch_last_login", "Account")
	}
	return nil
}

// UpdateProfile persists username and riot identifiers.
func (repository *PostgresRepository) UpdateProfile(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.Username, schema.UserAccount.RiotID, schema.UserAccount.RiotPUUID,
		schema.UserAccount.UpdatedAt, schema.UserAccount.ID,
	)

	cmd, err := repository.db.Exec(context, query,
		account.ID,
		account.Username,
		account.RiotID,
		account.RiotPUUID,
		account.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "account_update_profile")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.WrapResource(pgx.ErrNoRows, "account_update_profile", "Account")
	}
	return nil
}

// DeleteIdentity removes an identity row by ID.
func (repository *PostgresRepository) DeleteIdentity(context context.Context, identityID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.UserIdentity.Table, schema.UserIdentity.ID)

	cmd, err := repository.db.Exec(context, query, identityID)
	if err != nil {
		return dberr.Wrap(err, "identity_delete")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.WrapResource(pgx.ErrNoRows, "identity_delete", "Identity")
	}
	return nil
}

// DeleteAccount removes the account. Identities go with it via ON DELETE CASCADE.
func (repository *PostgresRepository) DeleteAccount(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.UserAccount.Table, schema.UserAccount.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "account_delete")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.WrapResource(pgx.ErrNoRows, "account_delete", "Account")
	}
	return nil
}
