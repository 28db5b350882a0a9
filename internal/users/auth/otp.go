// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
)

// # OTP Challenge Engine
//
// Challenges are pure in-memory mutations of the Account entity; callers
// persist the result through the repository. An account holds at most one
// challenge slot: issuing a new challenge of any purpose overwrites the
// previous one and abandons any in-flight email-change progress.

// Internal verification failure reasons. All of them surface to callers as
// the same INVALID_OR_EXPIRED_OTP error so a client cannot distinguish which
// check failed; they stay distinguishable in logs through error wrapping.
var (
	errChallengeMissing  = errors.New("no outstanding challenge")
	errChallengePurpose  = errors.New("challenge purpose mismatch")
	errChallengeMismatch = errors.New("challenge code mismatch")
	errChallengeExpired  = errors.New("challenge expired")
)

// codeUpperBound is 10^OtpLength, the exclusive upper bound of the uniform
// random draw.
var codeUpperBound = new(big.Int).Exp(big.NewInt(10), big.NewInt(OtpLength), nil)

// newChallengeCode draws a uniformly random fixed-width numeric code from
// crypto/rand. Zero-padded so every code is exactly OtpLength digits.
func newChallengeCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeUpperBound)
	if err != nil {
		return "", fmt.Errorf("auth_otp_generation_failed: %w", err)
	}
	return fmt.Sprintf("%0*d", OtpLength, n), nil
}

/*
issueChallenge places a fresh OTP challenge on the account, overwriting any
existing one.

Description: Generates a uniform random code with a fixed TTL. Because the
account carries a single challenge slot, issuing also resets the email-change
state and, unless the new challenge itself belongs to the new-email step,
discards any pending email.

Parameters:
  - account: *Account (mutated in place)
  - purpose: ChallengePurpose
  - now: time.Time (issue instant)

Returns:
  - string: The generated code, for delivery to the Notifier
  - error: Entropy failures only
*/
func issueChallenge(account *Account, purpose ChallengePurpose, now time.Time) (string, error) {
	code, err := newChallengeCode()
	if err != nil {
		return "", err
	}

	account.Challenge = &OtpChallenge{
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(OtpTTL),
	}

	// A new challenge of any purpose abandons in-flight email-change
	// progress. The new-email step keeps its own pending address.
	account.EmailChangeState = EmailChangeIdle
	if purpose != PurposeEmailChangeNew {
		account.PendingEmail = ""
	}

	return code, nil
}

/*
verifyChallenge consumes the account's outstanding challenge.

Description: Succeeds only if a challenge exists, its purpose matches, the
supplied code equals the stored code (constant-time comparison), and the
validity window has not elapsed. On success the challenge is cleared, making
every code single-use.

Parameters:
  - account: *Account (mutated in place on success)
  - supplied: string (caller-provided code)
  - purpose: ChallengePurpose (expected purpose)
  - now: time.Time (verification instant)

Returns:
  - error: apperr.InvalidChallenge on any failure, nil on success
*/
func verifyChallenge(account *Account, supplied string, purpose ChallengePurpose, now time.Time) error {
	challenge := account.Challenge

	if challenge == nil {
		return apperr.InvalidChallenge(errChallengeMissing)
	}

	if challenge.Purpose != purpose {
		return apperr.InvalidChallenge(errChallengePurpose)
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(supplied)) != 1 {
		return apperr.InvalidChallenge(errChallengeMismatch)
	}

	if !now.Before(challenge.ExpiresAt) {
		return apperr.InvalidChallenge(errChallengeExpired)
	}

	// Single-use: consume the challenge.
	account.Challenge = nil

	return nil
}
