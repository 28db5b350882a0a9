// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
)

// # Email-Change Workflow
//
// Changing the primary email is a four-step sequence that proves control of
// both the current and the proposed address:
//
//	1. RequestEmailChange      → OTP to the current address
//	2. ConfirmCurrentEmail     → advances to old-verified
//	3. RequestNewEmail         → stores pendingEmail, OTP to the new address
//	4. ConfirmNewEmail         → swaps the primary email
//
// Progress is tracked by the account's EmailChangeState. Issuing any
// unrelated challenge (password reset, resent registration code) resets the
// state to idle and silently discards the in-flight change.

/*
RequestEmailChange starts the workflow by challenging the current address.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - err: NotFound, notification or storage failures
*/
func (service *Service) RequestEmailChange(context context.Context, accountID string) error {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return err
	}

	code, err := issueChallenge(account, PurposeEmailChangeOld, time.Now())
	if err != nil {
		return err
	}

	if err := service.repository.SaveChallenge(context, account); err != nil {
		return err
	}

	return service.notifier.Send(context, account.Email, SubjectEmailChangeOld, emailChangeOldBody(code))
}

/*
ConfirmCurrentEmail completes step 2 of the workflow.

Description: Verifies the old-address challenge and advances the account to
the old-verified state. Nothing else changes yet; the primary email is only
swapped after the new address is confirmed too.

Parameters:
  - context: context.Context
  - accountID: string
  - code: string

Returns:
  - err: InvalidChallenge or storage failures
*/
func (service *Service) ConfirmCurrentEmail(context context.Context, accountID, code string) error {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if err := verifyChallenge(account, code, PurposeEmailChangeOld, time.Now()); err != nil {
		return err
	}

	account.EmailChangeState = EmailChangeOldVerified

	if err := service.repository.SaveChallenge(context, account); err != nil {
		return fmt.Errorf("auth_service_email_change_advance_failed: %w", err)
	}

	return nil
}

/*
RequestNewEmail runs step 3: proposes the replacement address.

Description: Requires the old-verified state, rejects addresses already in
use, stores the proposal as pendingEmail, and challenges the new address.

Parameters:
  - context: context.Context
  - accountID: string
  - newEmail: string

Returns:
  - err: Forbidden (step 2 not completed), ValidationError, Conflict,
    notification or storage failures
*/
func (service *Service) RequestNewEmail(context context.Context, accountID, newEmail string) error {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if account.EmailChangeState != EmailChangeOldVerified {
		return apperr.Forbidden("Verify your current email before proposing a new one")
	}

	proposed := normalizeEmail(newEmail)
	if proposed == account.Email {
		return apperr.ValidationError("New email must differ from the current email")
	}

	// Reject addresses owned by another account. The unique index remains
	// the definitive guard at commit time.
	if existing, err := service.repository.FindByEmail(context, proposed); err == nil && existing.ID != account.ID {
		return apperr.Conflict("Email is already registered")
	}

	account.PendingEmail = proposed

	code, err := issueChallenge(account, PurposeEmailChangeNew, time.Now())
	if err != nil {
		return err
	}

	if err := service.repository.SaveChallenge(context, account); err != nil {
		return err
	}

	return service.notifier.Send(context, proposed, SubjectEmailChangeNew, emailChangeNewBody(code))
}

/*
ConfirmNewEmail completes the workflow and swaps the primary email.

Description: Verifies the new-address challenge, promotes pendingEmail to
email, and clears all workflow state. An address claimed by someone else
between steps 3 and 4 surfaces as a Conflict from the commit.

Parameters:
  - context: context.Context
  - accountID: string
  - code: string

Returns:
  - err: InvalidChallenge, Conflict, or storage failures
*/
func (service *Service) ConfirmNewEmail(context context.Context, accountID, code string) error {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if err := verifyChallenge(account, code, PurposeEmailChangeNew, time.Now()); err != nil {
		return err
	}

	if account.PendingEmail == "" {
		return apperr.InvalidChallenge(errChallengeMissing)
	}

	account.Email = account.PendingEmail
	account.PendingEmail = ""
	account.EmailChangeState = EmailChangeIdle

	if err := service.repository.CommitEmailChange(context, account); err != nil {
		return err
	}

	return nil
}

func emailChangeOldBody(code string) string {
	return fmt.Sprintf("You asked to change your Stocktrail email address.\n\nYour confirmation code is %s. It expires in %d minutes.", code, int(OtpTTL.Minutes()))
}

func emailChangeNewBody(code string) string {
	return fmt.Sprintf("Confirm this address for your Stocktrail account.\n\nYour confirmation code is %s. It expires in %d minutes.", code, int(OtpTTL.Minutes()))
}
