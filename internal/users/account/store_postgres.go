// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/users/auth"
)

// PostgresProfileRepository implements the ProfileRepository interface using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new PostgreSQL implementation of the ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

/*
FindByID retrieves the profile projection of an account.

Description: Loads only fields relevant to profile management; credential
and challenge columns stay untouched in auth's own repository.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *auth.Account: Hydrated profile
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresProfileRepository) FindByID(context context.Context, id string) (*auth.Account, error) {
	const query = `
		SELECT id, firstname, lastname, email, role, status,
		       contactnumber, shippingaddress, avatarurl, createdat, updatedat
		FROM users.account
		WHERE id = $1`

	account := &auth.Account{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.Role,
		&account.Status,
		&account.ContactNumber,
		&account.ShippingAddress,
		&account.AvatarURL,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_by_id_failed: %w", err)
	}

	return account, nil
}

/*
UpdateProfile persists the mutable profile fields.

Parameters:
  - context: context.Context
  - account: *auth.Account

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) UpdateProfile(context context.Context, account *auth.Account) error {
	const query = `
		UPDATE users.account
		SET firstname = $2, lastname = $3, contactnumber = $4,
		    shippingaddress = $5, avatarurl = $6, updatedat = $7
		WHERE id = $1`

	account.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.ContactNumber,
		account.ShippingAddress,
		account.AvatarURL,
		account.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_failed: %w", err)
	}

	return nil
}
