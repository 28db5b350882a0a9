// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
)

/*
TestNewChallengeCode verifies the fixed width and charset of generated codes.
*/
func TestNewChallengeCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 256; i++ {
		code, err := newChallengeCode()
		require.NoError(t, err)
		require.Len(t, code, OtpLength)

		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
		}
		seen[code] = true
	}

	// Uniform draws over a million values should practically never collapse
	// onto a handful of outputs.
	assert.Greater(t, len(seen), 200)
}

/*
TestIssueChallenge_OverwritesSlot verifies the single-slot rule and its side
effects on email-change state.
*/
func TestIssueChallenge_OverwritesSlot(t *testing.T) {
	now := time.Now()
	account := &Account{
		EmailChangeState: EmailChangeOldVerified,
		PendingEmail:     "new@x.com",
	}

	first, err := issueChallenge(account, PurposeEmailChangeNew, now)
	require.NoError(t, err)
	assert.Equal(t, first, account.Challenge.Code)
	assert.Equal(t, now.Add(OtpTTL), account.Challenge.ExpiresAt)

	// New-email issuance keeps its own pending address.
	assert.Equal(t, "new@x.com", account.PendingEmail)
	assert.Equal(t, EmailChangeIdle, account.EmailChangeState)

	// Any other purpose discards it.
	_, err = issueChallenge(account, PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, account.Challenge.Purpose)
	assert.Empty(t, account.PendingEmail)
}

/*
TestVerifyChallenge exercises every rejection reason and the single-use
consumption on success.
*/
func TestVerifyChallenge(t *testing.T) {
	base := time.Now()

	newAccount := func() *Account {
		return &Account{
			Challenge: &OtpChallenge{
				Code:      "123456",
				Purpose:   PurposeRegistration,
				ExpiresAt: base.Add(OtpTTL),
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Account)
		code    string
		purpose ChallengePurpose
		at      time.Time
		wantOK  bool
	}{
		{"success", nil, "123456", PurposeRegistration, base, true},
		{"no_challenge", func(a *Account) { a.Challenge = nil }, "123456", PurposeRegistration, base, false},
		{"wrong_purpose", nil, "123456", PurposePasswordReset, base, false},
		{"wrong_code", nil, "654321", PurposeRegistration, base, false},
		{"expired", nil, "123456", PurposeRegistration, base.Add(OtpTTL), false},
		{"just_inside_window", nil, "123456", PurposeRegistration, base.Add(OtpTTL - time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := newAccount()
			if tt.mutate != nil {
				tt.mutate(account)
			}

			err := verifyChallenge(account, tt.code, tt.purpose, tt.at)

			if tt.wantOK {
				require.NoError(t, err)
				assert.Nil(t, account.Challenge, "challenge must be consumed")
			} else {
				require.Error(t, err)
				assert.True(t, apperr.IsChallenge(err))

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "INVALID_OR_EXPIRED_OTP", ae.Code)
			}
		})
	}
}

/*
TestVerifyChallenge_FailureKeepsChallenge confirms that a rejected attempt
does not burn the slot (only success consumes it).
*/
func TestVerifyChallenge_FailureKeepsChallenge(t *testing.T) {
	account := &Account{
		Challenge: &OtpChallenge{
			Code:      "123456",
			Purpose:   PurposeRegistration,
			ExpiresAt: time.Now().Add(OtpTTL),
		},
	}

	require.Error(t, verifyChallenge(account, "000000", PurposeRegistration, time.Now()))
	assert.NotNil(t, account.Challenge)

	require.NoError(t, verifyChallenge(account, "123456", PurposeRegistration, time.Now()))
	assert.Nil(t, account.Challenge)
}
