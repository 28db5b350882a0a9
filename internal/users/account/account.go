// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

/*
Package account handles profile management for authenticated users.

It lets users view and update their private identity data: name, contact
number, shipping address, and avatar. Credential and email changes are out of
scope here; those are security-sensitive workflows owned by the auth package.

# Architecture

  - Domain: This package depends on the auth package for the Account entity.
  - Persistence: A dedicated repository contract scoped to profile fields.
*/
package account

import (
	"context"

	"github.com/stocktrail/stocktrail/internal/users/auth"
)

// # Repository Contracts

// ProfileRepository defines the persistence contract for profile data.
type ProfileRepository interface {
	/*
		FindByID retrieves an account by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.Account: Loaded entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.Account, error)

	/*
		UpdateProfile persists the mutable profile fields of an account.

		Parameters:
		  - context: context.Context
		  - account: *auth.Account (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	UpdateProfile(context context.Context, account *auth.Account) error
}
