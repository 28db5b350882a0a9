// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/users/auth"
)

/*
TestEmailChange_FullWorkflow walks all four steps in order and verifies the
primary email only swaps at the very end.
*/
func TestEmailChange_FullWorkflow(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	account := h.activate(t, "old@x.com", "Abc123!@")

	// Step 1: challenge the current address.
	require.NoError(t, h.service.RequestEmailChange(ctx, account.ID))
	message := h.notifier.last(t)
	assert.Equal(t, "old@x.com", message.To)
	oldCode := h.repo.get(t, account.ID).Challenge.Code

	// Step 2: confirm it. The email is untouched; only the state advances.
	require.NoError(t, h.service.ConfirmCurrentEmail(ctx, account.ID, oldCode))
	stored := h.repo.get(t, account.ID)
	assert.Equal(t, "old@x.com", stored.Email)
	assert.Equal(t, auth.EmailChangeOldVerified, stored.EmailChangeState)
	assert.Nil(t, stored.Challenge)

	// Step 3: propose the new address; the code goes to the NEW mailbox.
	require.NoError(t, h.service.RequestNewEmail(ctx, account.ID, "NEW@X.COM"))
	message = h.notifier.last(t)
	assert.Equal(t, "new@x.com", message.To)

	stored = h.repo.get(t, account.ID)
	assert.Equal(t, "old@x.com", stored.Email)
	assert.Equal(t, "new@x.com", stored.PendingEmail)
	newCode := stored.Challenge.Code

	// Step 4: confirm and swap.
	require.NoError(t, h.service.ConfirmNewEmail(ctx, account.ID, newCode))
	stored = h.repo.get(t, account.ID)
	assert.Equal(t, "new@x.com", stored.Email)
	assert.Empty(t, stored.PendingEmail)
	assert.Equal(t, auth.EmailChangeIdle, stored.EmailChangeState)
	assert.Nil(t, stored.Challenge)

	// The new address now authenticates; the old one is gone.
	_, err := h.service.Login(ctx, "new@x.com", "Abc123!@")
	assert.NoError(t, err)
	_, err = h.service.Login(ctx, "old@x.com", "Abc123!@")
	assert.Error(t, err)
}

/*
TestEmailChange_StepThreeRequiresStepTwo verifies the workflow guard:
proposing a new address without a confirmed current address is rejected.
*/
func TestEmailChange_StepThreeRequiresStepTwo(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	account := h.activate(t, "old@x.com", "Abc123!@")

	// No step 1/2 at all.
	err := h.service.RequestNewEmail(ctx, account.ID, "new@x.com")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Step 1 without step 2 is not enough either.
	require.NoError(t, h.service.RequestEmailChange(ctx, account.ID))
	err = h.service.RequestNewEmail(ctx, account.ID, "new@x.com")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

/*
TestEmailChange_TakenAddressRejected verifies the address-in-use guard at
step 3 and the no-op guard against the account's own address.
*/
func TestEmailChange_TakenAddressRejected(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	account := h.activate(t, "old@x.com", "Abc123!@")
	h.activate(t, "taken@x.com", "Abc123!@")

	require.NoError(t, h.service.RequestEmailChange(ctx, account.ID))
	code := h.repo.get(t, account.ID).Challenge.Code
	require.NoError(t, h.service.ConfirmCurrentEmail(ctx, account.ID, code))

	err := h.service.RequestNewEmail(ctx, account.ID, "taken@x.com")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	err = h.service.RequestNewEmail(ctx, account.ID, "OLD@x.com")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestEmailChange_AbandonedByUnrelatedChallenge verifies the single challenge
slot: starting a password reset mid-workflow discards the email-change
progress entirely.
*/
func TestEmailChange_AbandonedByUnrelatedChallenge(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	account := h.activate(t, "old@x.com", "Abc123!@")

	require.NoError(t, h.service.RequestEmailChange(ctx, account.ID))
	code := h.repo.get(t, account.ID).Challenge.Code
	require.NoError(t, h.service.ConfirmCurrentEmail(ctx, account.ID, code))
	require.NoError(t, h.service.RequestNewEmail(ctx, account.ID, "new@x.com"))
	newCode := h.repo.get(t, account.ID).Challenge.Code

	// Unrelated challenge issuance wipes the slot and the pending address.
	require.NoError(t, h.service.RequestPasswordReset(ctx, "old@x.com"))
	stored := h.repo.get(t, account.ID)
	assert.Empty(t, stored.PendingEmail)
	assert.Equal(t, auth.EmailChangeIdle, stored.EmailChangeState)

	// The abandoned step-4 code is dead.
	err := h.service.ConfirmNewEmail(ctx, account.ID, newCode)
	require.Error(t, err)
	assert.True(t, apperr.IsChallenge(err))
	assert.Equal(t, "old@x.com", h.repo.get(t, account.ID).Email)
}

/*
TestEmailChange_WrongPurposeCode verifies that a step-2 code cannot be
replayed at step 4.
*/
func TestEmailChange_WrongPurposeCode(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	account := h.activate(t, "old@x.com", "Abc123!@")

	require.NoError(t, h.service.RequestEmailChange(ctx, account.ID))
	oldCode := h.repo.get(t, account.ID).Challenge.Code

	// Present the old-address code as if it confirmed a new address.
	err := h.service.ConfirmNewEmail(ctx, account.ID, oldCode)
	require.Error(t, err)
	assert.True(t, apperr.IsChallenge(err))

	// The challenge survives a failed wrong-purpose attempt; step 2 still works.
	require.NoError(t, h.service.ConfirmCurrentEmail(ctx, account.ID, oldCode))
}
