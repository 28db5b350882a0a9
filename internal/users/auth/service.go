// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/platform/sec"
	"github.com/stocktrail/stocktrail/pkg/uuid"
)

// # Account Lifecycle Controller

// Service orchestrates the account lifecycle: registration, OTP verification,
// login/logout, password change and recovery, and account deletion. The
// email-change workflow lives in emailchange.go on the same receiver.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, challenge,
// or rotation logic must be reviewed by the security team.
type Service struct {
	repository AccountRepository
	tokens     *TokenIssuer
	notifier   Notifier
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(repository AccountRepository, tokens *TokenIssuer, notifier Notifier) *Service {
	return &Service{
		repository: repository,
		tokens:     tokens,
		notifier:   notifier,
	}
}

// normalizeEmail case-folds and trims an address; all email comparisons in
// this package operate on the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

/*
Register validates, hashes, and persists a brand new account.

Description: Creates the account in pending status with an embedded
registration challenge, then delivers the code to the account's email.
The account cannot log in until the challenge is verified.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Account: Created entity (sanitized: hash and challenge are not serialized)
  - err: Conflict (if the email exists), notification or storage failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Account, error) {
	email := normalizeEmail(input.Email)

	// Fast-path uniqueness check. The definitive guard is the unique index:
	// concurrent duplicates race on Create and the loser gets a Conflict.
	if _, err := service.repository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Hashing failure aborts the
	// operation; a record must never be persisted without a hash.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	account := &Account{
		ID:               uuid.New(),
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            email,
		PasswordHash:     hashedPassword,
		Role:             sec.RoleBuyer,
		Status:           StatusPending,
		EmailChangeState: EmailChangeIdle,
	}

	code, err := issueChallenge(account, PurposeRegistration, time.Now())
	if err != nil {
		return nil, err
	}

	if err := service.repository.Create(context, account); err != nil {
		return nil, err
	}

	// Delivery failure is surfaced, not swallowed: the account stays in
	// pending status and the client recovers through ResendOTP.
	if err := service.notifier.Send(context, account.Email, SubjectRegistration, registrationBody(code)); err != nil {
		return nil, err
	}

	return account, nil
}

/*
VerifyRegistration activates a pending account using its challenge code.

Description: The code itself is the bearer credential at this step; the
account is resolved by its outstanding challenge, not by caller identity.

Parameters:
  - context: context.Context
  - code: string

Returns:
  - err: InvalidChallenge for any unknown, mismatched, or expired code
*/
func (service *Service) VerifyRegistration(context context.Context, code string) error {
	account, err := service.repository.FindByChallengeCode(context, code)
	if err != nil {
		// An unknown code and a bad code are indistinguishable to callers.
		return apperr.InvalidChallenge(errChallengeMissing)
	}

	if err := verifyChallenge(account, code, PurposeRegistration, time.Now()); err != nil {
		return err
	}

	if err := service.repository.Activate(context, account.ID); err != nil {
		return fmt.Errorf("auth_service_activate_failed: %w", err)
	}

	return nil
}

/*
ResendOTP issues a replacement registration challenge.

Description: For pending accounts whose code expired or never arrived.
The previous challenge is overwritten; only the new code verifies.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - err: NotFound, Conflict (already active), notification or storage failures
*/
func (service *Service) ResendOTP(context context.Context, email string) error {
	account, err := service.repository.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		return err
	}

	if account.Status != StatusPending {
		return apperr.Conflict("Account is already verified")
	}

	code, err := issueChallenge(account, PurposeRegistration, time.Now())
	if err != nil {
		return err
	}

	if err := service.repository.SaveChallenge(context, account); err != nil {
		return err
	}

	return service.notifier.Send(context, account.Email, SubjectRegistration, registrationBody(code))
}

// # Authentication Flow

// LoginSession represents a successfully established session.
type LoginSession struct {
	Account *Account
	Tokens  *TokenPair
}

/*
Login validates credentials and issues a token pair.

Description: Resolves the account, enforces status eligibility, performs a
constant-time password comparison, and mints rotated session credentials.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *LoginSession: Account plus transport-ready tokens
  - err: NotFound, Forbidden (pending/blocked), Unauthorized, or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*LoginSession, error) {
	account, err := service.repository.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	// Status gates login regardless of password correctness.
	if !account.CanLogin() {
		switch account.Status {
		case StatusPending:
			return nil, apperr.Forbidden("Account is not verified yet; check your email for the code")
		default:
			return nil, apperr.Forbidden("Account is blocked; contact support")
		}
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	tokens, err := service.tokens.IssuePair(context, account)
	if err != nil {
		return nil, err
	}

	return &LoginSession{Account: account, Tokens: tokens}, nil
}

/*
Refresh rotates a presented refresh token into a new session.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: New credentials and the session owner
  - err: Unauthorized on invalid or reused tokens
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*LoginSession, error) {
	account, tokens, err := service.tokens.Rotate(context, refreshToken)
	if err != nil {
		return nil, err
	}

	return &LoginSession{Account: account, Tokens: tokens}, nil
}

/*
Logout revokes the account's active session.

Description: Clears the stored refresh-token reference; the presented
refresh token can never be exchanged again.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, accountID string) error {
	return service.tokens.Revoke(context, accountID)
}

// # Password Management

/*
ChangePassword allows an authenticated account to rotate its credentials.

Description: Verifies the current password, rejects a no-op change, and
persists a fresh hash.

Parameters:
  - context: context.Context
  - accountID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - err: Unauthorized, ValidationError (same password), or storage failures
*/
func (service *Service) ChangePassword(context context.Context, accountID, currentPassword, newPassword string) error {
	if newPassword == currentPassword {
		return apperr.ValidationError("New password must differ from the current password")
	}

	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, account.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.repository.UpdatePassword(context, accountID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	return nil
}

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Issues a password-reset challenge and emails the code.
NOTE: Returns success for unknown addresses to prevent account enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - err: Notification or storage failures
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	account, err := service.repository.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		return nil
	}

	code, err := issueChallenge(account, PurposePasswordReset, time.Now())
	if err != nil {
		return err
	}

	if err := service.repository.SaveChallenge(context, account); err != nil {
		return err
	}

	return service.notifier.Send(context, account.Email, SubjectPasswordReset, passwordResetBody(code))
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the password-reset challenge, installs the new hash,
and revokes the active session. No tokens are issued here; the caller must
log in with the new password.

Parameters:
  - context: context.Context
  - email: string
  - code: string
  - newPassword: string

Returns:
  - err: InvalidChallenge, or storage failures
*/
func (service *Service) ResetPassword(context context.Context, email, code, newPassword string) error {
	account, err := service.repository.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		return apperr.InvalidChallenge(errChallengeMissing)
	}

	if err := verifyChallenge(account, code, PurposePasswordReset, time.Now()); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.repository.ResetPassword(context, account.ID, hashedPassword); err != nil {
		return err
	}

	return nil
}

// # Account Removal

/*
DeleteAccount permanently removes an account.

Description: Self-service deletion, or administrative removal of any account.

Parameters:
  - context: context.Context
  - requesterID: string
  - requesterRole: sec.UserRole
  - targetID: string

Returns:
  - err: Forbidden unless the requester owns the account or is an admin
*/
func (service *Service) DeleteAccount(context context.Context, requesterID string, requesterRole sec.UserRole, targetID string) error {
	if requesterID != targetID && requesterRole != sec.RoleAdmin {
		return apperr.Forbidden("You are not allowed to delete this account")
	}

	return service.repository.Delete(context, targetID)
}

// # Notification Bodies

func registrationBody(code string) string {
	return fmt.Sprintf("Welcome to Stocktrail!\n\nYour verification code is %s. It expires in %d minutes.", code, int(OtpTTL.Minutes()))
}

func passwordResetBody(code string) string {
	return fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.\n\nIf you did not request this, you can ignore this email.", code, int(OtpTTL.Minutes()))
}
