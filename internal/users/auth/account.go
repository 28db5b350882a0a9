// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

/*
Package auth implements the account identity and session-lifecycle layer.

It defines the core domain entities (Account, OtpChallenge) and the logic for
registration, authentication, session rotation, and the multi-step email-change
and password-reset workflows.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to account identity.
State transitions (pending → active, email-change steps) live here; transport
and persistence are delegated to the handler and repository respectively.
*/
package auth

import (
	"time"

	"github.com/stocktrail/stocktrail/internal/platform/sec"
)

// # Domain Entities

// AccountStatus governs login eligibility. Only active accounts may
// authenticate; pending accounts must complete OTP verification first and
// blocked accounts are locked out by an administrator.
type AccountStatus string

const (
	StatusPending AccountStatus = "pending"
	StatusActive  AccountStatus = "active"
	StatusBlocked AccountStatus = "blocked"
)

// ChallengePurpose is the intended use of an OTP challenge. Verification
// requires an exact purpose match.
type ChallengePurpose string

const (
	PurposeRegistration   ChallengePurpose = "registration"
	PurposeEmailChangeOld ChallengePurpose = "email-change-old"
	PurposeEmailChangeNew ChallengePurpose = "email-change-new"
	PurposePasswordReset  ChallengePurpose = "password-reset"
)

// EmailChangeState tracks progress through the email-change workflow as an
// explicit tagged value rather than inferring it from challenge purposes.
// It advances to old-verified after the current address is confirmed and
// resets to idle whenever any new challenge is issued.
type EmailChangeState string

const (
	EmailChangeIdle        EmailChangeState = "idle"
	EmailChangeOldVerified EmailChangeState = "old-verified"
)

// OtpChallenge is a short-lived proof of email control. At most one challenge
// exists per account; issuing a new one overwrites the previous challenge
// regardless of purpose.
type OtpChallenge struct {
	Code      string           `json:"-"` // Never exposed over transport.
	Purpose   ChallengePurpose `json:"-"`
	ExpiresAt time.Time        `json:"-"`
}

// Account represents a registered member of the Stocktrail platform.
type Account struct {
	ID               string           `json:"id"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Email            string           `json:"email"`
	PendingEmail     string           `json:"-"` // Proposed new address mid email-change.
	PasswordHash     string           `json:"-"` // Explicitly omitted from JSON for security.
	Role             sec.UserRole     `json:"role"`
	Status           AccountStatus    `json:"status"`
	Challenge        *OtpChallenge    `json:"-"`
	EmailChangeState EmailChangeState `json:"-"`
	RefreshTokenRef  string           `json:"-"` // Hash of the currently valid refresh token.
	ContactNumber    string           `json:"contact_number,omitempty"`
	ShippingAddress  string           `json:"shipping_address,omitempty"`
	AvatarURL        string           `json:"avatar_url,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CanLogin reports whether the account status permits authentication.
func (account *Account) CanLogin() bool {
	return account.Status == StatusActive
}

// # Field Identifiers

// Global field names for validation and identity mapping in the auth domain.
const (
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldEmail           = "email"
	FieldNewEmail        = "new_email"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldCode            = "code"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldAccount         = "account"
	FieldMessage         = "message"
)
