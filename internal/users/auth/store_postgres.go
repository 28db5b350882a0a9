// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/platform/dberr"
)

// # Account Repository (PostgreSQL)

// accountColumns is the canonical projection for hydrating an Account.
const accountColumns = `
	id, firstname, lastname, email, pendingemail, passwordhash, role, status,
	otpcode, otppurpose, otpexpiresat, emailchangestate, refreshtokenref,
	contactnumber, shippingaddress, avatarurl, createdat, updatedat`

// PostgresAccountRepository implements the AccountRepository interface using pgx.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] values so callers never see pgx internals.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
Create persists a new account record into the users.account table.

Description: Inserts the full entity including the embedded challenge slot.
Concurrent duplicate registrations race on the case-folded unique email
index; the loser receives a Conflict error.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: apperr.Conflict on duplicate email, or execution failures
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	const query = `
		INSERT INTO users.account (
			id, firstname, lastname, email, pendingemail, passwordhash, role, status,
			otpcode, otppurpose, otpexpiresat, emailchangestate, refreshtokenref,
			contactnumber, shippingaddress, avatarurl, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	code, purpose, expiresAt := flattenChallenge(account.Challenge)

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.Email,
		nullableString(account.PendingEmail),
		account.PasswordHash,
		account.Role,
		account.Status,
		code,
		purpose,
		expiresAt,
		account.EmailChangeState,
		nullableString(account.RefreshTokenRef),
		account.ContactNumber,
		account.ShippingAddress,
		account.AvatarURL,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves an account record by its unique email address.

Description: The caller is expected to pass a case-folded address; the query
additionally folds the stored value so historical rows are matched the same way.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE LOWER(email) = LOWER($1)`

	account, err := repository.scanOne(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account not found with this email")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_email_failed: %w", err)
	}

	return account, nil
}

/*
FindByID retrieves an account record by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE id = $1`

	account, err := repository.scanOne(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return account, nil
}

/*
FindByChallengeCode retrieves the account holding an outstanding challenge code.

Description: Used where the code itself is the bearer credential. Expiry and
purpose checks are the OTP engine's job; this is lookup only.

Parameters:
  - context: context.Context
  - code: string

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresAccountRepository) FindByChallengeCode(context context.Context, code string) (*Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE otpcode = $1`

	account, err := repository.scanOne(repository.pool.QueryRow(context, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No account matches this code")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_code_failed: %w", err)
	}

	return account, nil
}

/*
SaveChallenge persists the account's challenge slot in a single statement.

Description: Writes the OTP fields, pending email, and email-change state
together so the slot can never be observed half-updated.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) SaveChallenge(context context.Context, account *Account) error {
	const query = `
		UPDATE users.account
		SET otpcode = $2, otppurpose = $3, otpexpiresat = $4,
		    pendingemail = $5, emailchangestate = $6, updatedat = $7
		WHERE id = $1`

	code, purpose, expiresAt := flattenChallenge(account.Challenge)

	account.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		account.ID,
		code,
		purpose,
		expiresAt,
		nullableString(account.PendingEmail),
		account.EmailChangeState,
		account.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_account_repo_save_challenge_failed: %w", err)
	}

	return nil
}

/*
Activate transitions an account to active status and clears its challenge slot.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) Activate(context context.Context, id string) error {
	const query = `
		UPDATE users.account
		SET status = $2, otpcode = NULL, otppurpose = NULL, otpexpiresat = NULL, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, StatusActive, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_activate_failed: %w", err)
	}

	return nil
}

/*
CommitEmailChange installs the account's new primary email address.

Description: Persists the swapped email while clearing the pending address,
the challenge slot, and the email-change state in one statement. The unique
index still applies: an address claimed between the new-email request and
this commit surfaces as a Conflict.

Parameters:
  - context: context.Context
  - account: *Account (Email already swapped in memory)

Returns:
  - error: apperr.Conflict or execution failures
*/
func (repository *PostgresAccountRepository) CommitEmailChange(context context.Context, account *Account) error {
	const query = `
		UPDATE users.account
		SET email = $2, pendingemail = NULL,
		    otpcode = NULL, otppurpose = NULL, otpexpiresat = NULL,
		    emailchangestate = $3, updatedat = $4
		WHERE id = $1`

	account.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Email,
		EmailChangeIdle,
		account.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_account_repo_commit_email_failed: %w", err)
	}

	return nil
}

/*
UpdatePassword replaces only the credential hash for a specific account.

Parameters:
  - context: context.Context
  - id: string
  - newHash: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, id, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
ResetPassword replaces the credential hash, clears the challenge slot, and
revokes the stored refresh-token reference in one statement.

Description: Completes the forgot-password flow. Revoking the reference
forces every existing session to re-login with the new password.

Parameters:
  - context: context.Context
  - id: string
  - newHash: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) ResetPassword(context context.Context, id, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2,
		    otpcode = NULL, otppurpose = NULL, otpexpiresat = NULL,
		    refreshtokenref = NULL, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_reset_password_failed: %w", err)
	}

	return nil
}

/*
UpdateRefreshTokenRef unconditionally stores a new refresh-token reference.

Parameters:
  - context: context.Context
  - id: string
  - ref: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) UpdateRefreshTokenRef(context context.Context, id, ref string) error {
	const query = "UPDATE users.account SET refreshtokenref = $2, updatedat = $3 WHERE id = $1"

	_, err := repository.pool.Exec(context, query, id, ref, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_token_ref_failed: %w", err)
	}

	return nil
}

/*
SwapRefreshTokenRef atomically rotates the stored refresh-token reference.

Description: The WHERE clause carries the compare: the row is updated only if
the stored reference still equals oldRef. Two concurrent rotations with the
same presented token can therefore never both succeed.

Parameters:
  - context: context.Context
  - id: string
  - oldRef: string
  - newRef: string

Returns:
  - bool: true if the swap applied
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) SwapRefreshTokenRef(context context.Context, id, oldRef, newRef string) (bool, error) {
	const query = `
		UPDATE users.account
		SET refreshtokenref = $3, updatedat = $4
		WHERE id = $1 AND refreshtokenref = $2`

	tag, err := repository.pool.Exec(context, query, id, oldRef, newRef, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_account_repo_swap_token_ref_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
ClearRefreshTokenRef revokes the account's current session.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) ClearRefreshTokenRef(context context.Context, id string) error {
	const query = "UPDATE users.account SET refreshtokenref = NULL, updatedat = $2 WHERE id = $1"

	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_clear_token_ref_failed: %w", err)
	}

	return nil
}

/*
Delete permanently removes an account record.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound if no row matched, or execution failures
*/
func (repository *PostgresAccountRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM users.account WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account not found")
	}

	return nil
}

// # Scan Helpers

// scanOne hydrates a single Account row, reassembling the nullable challenge
// columns into the embedded OtpChallenge.
func (repository *PostgresAccountRepository) scanOne(row pgx.Row) (*Account, error) {
	account := &Account{}
	var pendingEmail, otpCode, otpPurpose, refreshRef *string
	var otpExpiresAt *time.Time

	err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&pendingEmail,
		&account.PasswordHash,
		&account.Role,
		&account.Status,
		&otpCode,
		&otpPurpose,
		&otpExpiresAt,
		&account.EmailChangeState,
		&refreshRef,
		&account.ContactNumber,
		&account.ShippingAddress,
		&account.AvatarURL,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pendingEmail != nil {
		account.PendingEmail = *pendingEmail
	}
	if refreshRef != nil {
		account.RefreshTokenRef = *refreshRef
	}
	if otpCode != nil && otpPurpose != nil && otpExpiresAt != nil {
		account.Challenge = &OtpChallenge{
			Code:      *otpCode,
			Purpose:   ChallengePurpose(*otpPurpose),
			ExpiresAt: *otpExpiresAt,
		}
	}

	return account, nil
}

// flattenChallenge splits the optional challenge into nullable columns.
func flattenChallenge(challenge *OtpChallenge) (code, purpose *string, expiresAt *time.Time) {
	if challenge == nil {
		return nil, nil, nil
	}
	p := string(challenge.Purpose)
	return &challenge.Code, &p, &challenge.ExpiresAt
}

// nullableString maps the empty string to SQL NULL.
func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
