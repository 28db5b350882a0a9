// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"context"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for account records.
//
// The repository exclusively owns Account rows: the token issuer and the OTP
// engine never persist independently. Implementations must enforce the
// case-folded unique-email constraint and provide the atomic refresh-token
// compare-and-swap used for rotation.
type AccountRepository interface {
	/*
		Create persists a brand new account, including its initial challenge.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: apperr.Conflict when the email is already registered
		    (the uniqueness constraint resolves concurrent duplicates),
		    or storage failures
	*/
	Create(context context.Context, account *Account) error

	/*
		FindByEmail retrieves an account by its case-folded email address.

		Parameters:
		  - context: context.Context
		  - email: string (already lower-cased by the caller)

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		FindByID retrieves an account by its primary key.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByChallengeCode retrieves the account holding the given
		outstanding challenge code. Used by flows where the code itself is
		the bearer credential (registration verification).

		Parameters:
		  - context: context.Context
		  - code: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByChallengeCode(context context.Context, code string) (*Account, error)

	/*
		SaveChallenge persists the account's challenge slot: OTP fields,
		pending email, and email-change state, in a single statement.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: Storage failures
	*/
	SaveChallenge(context context.Context, account *Account) error

	/*
		Activate transitions an account to active status and clears its
		challenge slot atomically.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Storage failures
	*/
	Activate(context context.Context, id string) error

	/*
		CommitEmailChange persists the account's new primary email and
		clears the pending email, challenge slot, and email-change state
		in a single statement.

		Parameters:
		  - context: context.Context
		  - account: *Account (Email already swapped in memory)

		Returns:
		  - error: apperr.Conflict if the address was claimed since
		    the new-email step was requested, or storage failures
	*/
	CommitEmailChange(context context.Context, account *Account) error

	/*
		UpdatePassword replaces the stored credential hash.

		Parameters:
		  - context: context.Context
		  - id: string
		  - newHash: string

		Returns:
		  - error: Storage failures
	*/
	UpdatePassword(context context.Context, id, newHash string) error

	/*
		ResetPassword replaces the credential hash, clears the challenge
		slot, and revokes the stored refresh-token reference in a single
		statement. Used by the forgot-password flow.

		Parameters:
		  - context: context.Context
		  - id: string
		  - newHash: string

		Returns:
		  - error: Storage failures
	*/
	ResetPassword(context context.Context, id, newHash string) error

	/*
		UpdateRefreshTokenRef stores the reference of the currently valid
		refresh token, unconditionally.

		Parameters:
		  - context: context.Context
		  - id: string
		  - ref: string (hash of the refresh token)

		Returns:
		  - error: Storage failures
	*/
	UpdateRefreshTokenRef(context context.Context, id, ref string) error

	/*
		SwapRefreshTokenRef atomically replaces the stored refresh-token
		reference, but only if it still equals oldRef. This single
		find-by-old-reference-and-replace statement closes the concurrent
		rotation race that would otherwise widen the reuse-detection window.

		Parameters:
		  - context: context.Context
		  - id: string
		  - oldRef: string (reference of the presented token)
		  - newRef: string (reference of the replacement token)

		Returns:
		  - bool: true if the swap applied, false if oldRef was stale
		  - error: Storage failures
	*/
	SwapRefreshTokenRef(context context.Context, id, oldRef, newRef string) (bool, error)

	/*
		ClearRefreshTokenRef revokes the current session by clearing the
		stored reference. Used on logout and on reuse detection.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Storage failures
	*/
	ClearRefreshTokenRef(context context.Context, id string) error

	/*
		Delete permanently removes an account record.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Delete(context context.Context, id string) error
}

// # Notifier Contract

// Notifier delivers out-of-band messages (OTP codes) to an email address.
// Delivery failure is propagated to the caller; workflow state that was
// already persisted is not rolled back, the client retries via resend.
type Notifier interface {
	Send(context context.Context, to, subject, body string) error
}
