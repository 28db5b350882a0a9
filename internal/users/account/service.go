// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package account

import (
	"context"
	"fmt"

	"github.com/stocktrail/stocktrail/internal/users/auth"
)

// Service implements profile management use cases.
type Service struct {
	repository ProfileRepository
}

// NewService constructs a new account [Service].
func NewService(repository ProfileRepository) *Service {
	return &Service{repository: repository}
}

/*
GetProfile retrieves the full profile of an account.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - *auth.Account: Hydrated profile (sensitive fields are not serialized)
  - err: apperr.NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, accountID string) (*auth.Account, error) {
	return service.repository.FindByID(context, accountID)
}

// UpdateProfileInput carries partial profile changes. Nil pointers mean
// "leave unchanged".
type UpdateProfileInput struct {
	FirstName       *string
	LastName        *string
	ContactNumber   *string
	ShippingAddress *string
	AvatarURL       *string
}

/*
UpdateProfile applies partial updates to an account's profile fields.

Parameters:
  - context: context.Context
  - accountID: string
  - input: UpdateProfileInput

Returns:
  - *auth.Account: The updated profile
  - err: apperr.NotFound or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, accountID string, input UpdateProfileInput) (*auth.Account, error) {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		account.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		account.LastName = *input.LastName
	}
	if input.ContactNumber != nil {
		account.ContactNumber = *input.ContactNumber
	}
	if input.ShippingAddress != nil {
		account.ShippingAddress = *input.ShippingAddress
	}
	if input.AvatarURL != nil {
		account.AvatarURL = *input.AvatarURL
	}

	if err := service.repository.UpdateProfile(context, account); err != nil {
		return nil, fmt.Errorf("account_service_update_profile_failed: %w", err)
	}

	return account, nil
}
