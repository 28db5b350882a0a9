// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import "time"

// # Authentication Constraints

const (
	// OtpLength is the fixed width of numeric challenge codes.
	OtpLength = 6

	// OtpTTL is the validity window of a challenge from the moment it is
	// issued. Expiry is checked lazily at verification time; there is no
	// background sweeper.
	OtpTTL = 5 * time.Minute

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// # Notification Subjects

const (
	SubjectRegistration   = "Verify your Stocktrail account"
	SubjectEmailChangeOld = "Confirm your current email address"
	SubjectEmailChangeNew = "Confirm your new email address"
	SubjectPasswordReset  = "Reset your Stocktrail password"
)
