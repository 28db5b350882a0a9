// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/platform/sec"
	"github.com/stocktrail/stocktrail/internal/users/auth"
)

// # Test Doubles

// memoryAccountRepository is an in-memory AccountRepository with the same
// atomicity guarantees as the PostgreSQL implementation: unique case-folded
// emails and a compare-and-swap on the refresh-token reference.
type memoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account // keyed by ID

	// failNextClear makes the next ClearRefreshTokenRef call fail, to
	// exercise storage-failure paths during revocation.
	failNextClear bool
}

func newMemoryAccountRepository() *memoryAccountRepository {
	return &memoryAccountRepository{accounts: make(map[string]*auth.Account)}
}

// clone returns a detached copy so callers mutate nothing until they save.
func clone(account *auth.Account) *auth.Account {
	copied := *account
	if account.Challenge != nil {
		challenge := *account.Challenge
		copied.Challenge = &challenge
	}
	return &copied
}

func (repo *memoryAccountRepository) Create(_ context.Context, account *auth.Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, existing := range repo.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return apperr.Conflict("Email is already registered")
		}
	}

	repo.accounts[account.ID] = clone(account)
	return nil
}

func (repo *memoryAccountRepository) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, account := range repo.accounts {
		if strings.EqualFold(account.Email, email) {
			return clone(account), nil
		}
	}
	return nil, apperr.NotFound("Account not found with this email")
}

func (repo *memoryAccountRepository) FindByID(_ context.Context, id string) (*auth.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	account, ok := repo.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account not found")
	}
	return clone(account), nil
}

func (repo *memoryAccountRepository) FindByChallengeCode(_ context.Context, code string) (*auth.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, account := range repo.accounts {
		if account.Challenge != nil && account.Challenge.Code == code {
			return clone(account), nil
		}
	}
	return nil, apperr.NotFound("No account matches this code")
}

func (repo *memoryAccountRepository) SaveChallenge(_ context.Context, account *auth.Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[account.ID]
	if !ok {
		return apperr.NotFound("Account not found")
	}

	stored.Challenge = nil
	if account.Challenge != nil {
		challenge := *account.Challenge
		stored.Challenge = &challenge
	}
	stored.PendingEmail = account.PendingEmail
	stored.EmailChangeState = account.EmailChangeState
	return nil
}

func (repo *memoryAccountRepository) Activate(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	if !ok {
		return apperr.NotFound("Account not found")
	}
	stored.Status = auth.StatusActive
	stored.Challenge = nil
	return nil
}

func (repo *memoryAccountRepository) CommitEmailChange(_ context.Context, account *auth.Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for id, existing := range repo.accounts {
		if id != account.ID && strings.EqualFold(existing.Email, account.Email) {
			return apperr.Conflict("Email is already registered")
		}
	}

	stored, ok := repo.accounts[account.ID]
	if !ok {
		return apperr.NotFound("Account not found")
	}
	stored.Email = account.Email
	stored.PendingEmail = ""
	stored.Challenge = nil
	stored.EmailChangeState = auth.EmailChangeIdle
	return nil
}

func (repo *memoryAccountRepository) UpdatePassword(_ context.Context, id, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	if !ok {
		return apperr.NotFound("Account not found")
	}
	stored.PasswordHash = newHash
	return nil
}

func (repo *memoryAccountRepository) ResetPassword(_ context.Context, id, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	if !ok {
		return apperr.NotFound("Account not found")
	}
	stored.PasswordHash = newHash
	stored.Challenge = nil
	stored.RefreshTokenRef = ""
	return nil
}

func (repo *memoryAccountRepository) UpdateRefreshTokenRef(_ context.Context, id, ref string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	if !ok {
		return apperr.NotFound("Account not found")
	}
	stored.RefreshTokenRef = ref
	return nil
}

func (repo *memoryAccountRepository) SwapRefreshTokenRef(_ context.Context, id, oldRef, newRef string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	if !ok {
		return false, nil
	}
	if stored.RefreshTokenRef != oldRef {
		return false, nil
	}
	stored.RefreshTokenRef = newRef
	return true, nil
}

func (repo *memoryAccountRepository) ClearRefreshTokenRef(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failNextClear {
		repo.failNextClear = false
		return assert.AnError
	}

	if stored, ok := repo.accounts[id]; ok {
		stored.RefreshTokenRef = ""
	}
	return nil
}

func (repo *memoryAccountRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.accounts[id]; !ok {
		return apperr.NotFound("Account not found")
	}
	delete(repo.accounts, id)
	return nil
}

// get returns the live stored record so tests can tamper with challenge
// expiry or status directly.
func (repo *memoryAccountRepository) get(t *testing.T, id string) *auth.Account {
	t.Helper()
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[id]
	require.True(t, ok, "account %s not in repository", id)
	return stored
}

// recordingNotifier captures outbound messages instead of sending them.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
	failNext bool
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

func (notifier *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if notifier.failNext {
		notifier.failNext = false
		return assert.AnError
	}
	notifier.messages = append(notifier.messages, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (notifier *recordingNotifier) last(t *testing.T) sentMessage {
	t.Helper()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	require.NotEmpty(t, notifier.messages)
	return notifier.messages[len(notifier.messages)-1]
}

// # Harness

type testHarness struct {
	service  *auth.Service
	repo     *memoryAccountRepository
	notifier *recordingNotifier
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	signer, err := sec.NewTokenService(
		"test-access-secret-0123456789",
		"test-refresh-secret-9876543210",
		"stocktrail.test",
		15*time.Minute,
		24*time.Hour,
	)
	require.NoError(t, err)

	repo := newMemoryAccountRepository()
	notifier := &recordingNotifier{}
	service := auth.NewService(repo, auth.NewTokenIssuer(signer, repo), notifier)

	return &testHarness{service: service, repo: repo, notifier: notifier}
}

// register enrolls an account and returns it with its live challenge code.
func (h *testHarness) register(t *testing.T, email, password string) (*auth.Account, string) {
	t.Helper()

	account, err := h.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)

	stored := h.repo.get(t, account.ID)
	require.NotNil(t, stored.Challenge)
	return account, stored.Challenge.Code
}

// activate registers and verifies an account, ready for login.
func (h *testHarness) activate(t *testing.T, email, password string) *auth.Account {
	t.Helper()

	account, code := h.register(t, email, password)
	require.NoError(t, h.service.VerifyRegistration(context.Background(), code))
	return account
}

// # Registration

/*
TestRegister_CreatesPendingAccount verifies the shape of a fresh enrollment:
case-folded email, pending status, hashed credential, and a six-digit code
with a five-minute window.
*/
func TestRegister_CreatesPendingAccount(t *testing.T) {
	h := newTestHarness(t)

	account, err := h.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ANN@X.COM",
		Password:  "Abc123!@",
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@x.com", account.Email)
	assert.Equal(t, auth.StatusPending, account.Status)
	assert.Equal(t, sec.RoleBuyer, account.Role)

	// The stored credential is never the plaintext.
	stored := h.repo.get(t, account.ID)
	assert.NotEqual(t, "Abc123!@", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("Abc123!@", stored.PasswordHash))

	// Challenge: 6 digits, registration purpose, ~300 second validity.
	require.NotNil(t, stored.Challenge)
	assert.Len(t, stored.Challenge.Code, auth.OtpLength)
	assert.Equal(t, auth.PurposeRegistration, stored.Challenge.Purpose)
	assert.WithinDuration(t, time.Now().Add(auth.OtpTTL), stored.Challenge.ExpiresAt, 5*time.Second)

	// The code was handed to the notifier, aimed at the folded address.
	message := h.notifier.last(t)
	assert.Equal(t, "ann@x.com", message.To)
	assert.Contains(t, message.Body, stored.Challenge.Code)
}

/*
TestRegister_DuplicateEmail verifies case-insensitive uniqueness.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	h := newTestHarness(t)
	h.register(t, "ann@x.com", "Abc123!@")

	_, err := h.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Another",
		LastName:  "Ann",
		Email:     "Ann@X.com",
		Password:  "Other123!",
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestRegister_NotifierFailureSurfaces verifies that a failed delivery is
propagated instead of silently marking the step complete. The account still
exists in pending status and recovers through ResendOTP.
*/
func TestRegister_NotifierFailureSurfaces(t *testing.T) {
	h := newTestHarness(t)
	h.notifier.failNext = true

	_, err := h.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Password:  "Abc123!@",
	})
	require.Error(t, err)

	// Recovery path: resend succeeds and delivers a fresh code.
	require.NoError(t, h.service.ResendOTP(context.Background(), "ann@x.com"))
	message := h.notifier.last(t)
	assert.Equal(t, "ann@x.com", message.To)
}

// # OTP Verification

/*
TestVerifyRegistration_SingleUse verifies that a code works exactly once.
*/
func TestVerifyRegistration_SingleUse(t *testing.T) {
	h := newTestHarness(t)
	account, code := h.register(t, "ann@x.com", "Abc123!@")

	require.NoError(t, h.service.VerifyRegistration(context.Background(), code))
	assert.Equal(t, auth.StatusActive, h.repo.get(t, account.ID).Status)

	// Second presentation of the same code must fail.
	err := h.service.VerifyRegistration(context.Background(), code)
	require.Error(t, err)
	assert.True(t, apperr.IsChallenge(err))
}

/*
TestVerifyRegistration_Expired verifies lazy expiry: an otherwise correct
code is rejected after its window has elapsed.
*/
func TestVerifyRegistration_Expired(t *testing.T) {
	h := newTestHarness(t)
	account, code := h.register(t, "ann@x.com", "Abc123!@")

	// Age the challenge past its window.
	h.repo.get(t, account.ID).Challenge.ExpiresAt = time.Now().Add(-time.Second)

	err := h.service.VerifyRegistration(context.Background(), code)
	require.Error(t, err)
	assert.True(t, apperr.IsChallenge(err))
	assert.Equal(t, auth.StatusPending, h.repo.get(t, account.ID).Status)
}

/*
TestVerifyRegistration_UnknownCode verifies that an unknown code is
indistinguishable from a bad one.
*/
func TestVerifyRegistration_UnknownCode(t *testing.T) {
	h := newTestHarness(t)
	h.register(t, "ann@x.com", "Abc123!@")

	err := h.service.VerifyRegistration(context.Background(), "000000")
	if err == nil {
		// Astronomically unlikely collision with the generated code.
		t.Skip("generated code collided with probe value")
	}
	assert.True(t, apperr.IsChallenge(err))
}

/*
TestResendOTP_InvalidatesPreviousCode verifies the single challenge slot:
issuing a replacement code makes the original unusable.
*/
func TestResendOTP_InvalidatesPreviousCode(t *testing.T) {
	h := newTestHarness(t)
	account, firstCode := h.register(t, "ann@x.com", "Abc123!@")

	require.NoError(t, h.service.ResendOTP(context.Background(), "ann@x.com"))
	secondCode := h.repo.get(t, account.ID).Challenge.Code

	if firstCode != secondCode {
		err := h.service.VerifyRegistration(context.Background(), firstCode)
		require.Error(t, err)
	}
	require.NoError(t, h.service.VerifyRegistration(context.Background(), secondCode))
}

/*
TestResendOTP_AlreadyVerified verifies that active accounts cannot request
registration codes.
*/
func TestResendOTP_AlreadyVerified(t *testing.T) {
	h := newTestHarness(t)
	h.activate(t, "ann@x.com", "Abc123!@")

	err := h.service.ResendOTP(context.Background(), "ann@x.com")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

// # Login

/*
TestLogin_StatusGate verifies that pending and blocked accounts cannot log
in even with the correct password.
*/
func TestLogin_StatusGate(t *testing.T) {
	tests := []struct {
		name   string
		status auth.AccountStatus
	}{
		{"pending_account", auth.StatusPending},
		{"blocked_account", auth.StatusBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			account, _ := h.register(t, "ann@x.com", "Abc123!@")
			h.repo.get(t, account.ID).Status = tt.status

			_, err := h.service.Login(context.Background(), "ann@x.com", "Abc123!@")
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "FORBIDDEN", ae.Code)
		})
	}
}

/*
TestLogin_WrongPassword verifies credential rejection on active accounts.
*/
func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHarness(t)
	h.activate(t, "ann@x.com", "Abc123!@")

	_, err := h.service.Login(context.Background(), "ann@x.com", "wrong-password")
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestLogin_UnknownEmail verifies the NotFound path.
*/
func TestLogin_UnknownEmail(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.Login(context.Background(), "nobody@x.com", "whatever1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// # Session Lifecycle

/*
TestLifecycle_RoundTrip exercises the full happy path: register, verify
the OTP, log in, rotate the session, log out, and confirm the retired
refresh token is rejected.
*/
func TestLifecycle_RoundTrip(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	account, code := h.register(t, "ann@x.com", "Abc123!@")
	require.NoError(t, h.service.VerifyRegistration(ctx, code))

	session, err := h.service.Login(ctx, "ann@x.com", "Abc123!@")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)

	rotated, err := h.service.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	require.NoError(t, h.service.Logout(ctx, account.ID))

	// After logout nothing rotates any more, not even the latest token.
	_, err = h.service.Refresh(ctx, rotated.Tokens.RefreshToken)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestRefresh_ReuseDetection verifies the rotation protocol: a superseded
refresh token is rejected, and its presentation revokes the live session.
*/
func TestRefresh_ReuseDetection(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.activate(t, "ann@x.com", "Abc123!@")
	session, err := h.service.Login(ctx, "ann@x.com", "Abc123!@")
	require.NoError(t, err)

	firstRefresh := session.Tokens.RefreshToken

	rotated, err := h.service.Refresh(ctx, firstRefresh)
	require.NoError(t, err)

	// Replaying the superseded token is the theft signal.
	_, err = h.service.Refresh(ctx, firstRefresh)
	require.Error(t, err)

	// Reuse revokes everything: the legitimate successor dies too.
	_, err = h.service.Refresh(ctx, rotated.Tokens.RefreshToken)
	require.Error(t, err)
}

/*
TestRefresh_RevokeFailureSurfaces verifies that a storage failure while
clearing the reference after reuse detection is returned to the caller
instead of being swallowed: the successor token is still live at that
point, so the operation must not report a clean rejection.
*/
func TestRefresh_RevokeFailureSurfaces(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.activate(t, "ann@x.com", "Abc123!@")
	session, err := h.service.Login(ctx, "ann@x.com", "Abc123!@")
	require.NoError(t, err)

	firstRefresh := session.Tokens.RefreshToken
	rotated, err := h.service.Refresh(ctx, firstRefresh)
	require.NoError(t, err)

	h.repo.failNextClear = true
	_, err = h.service.Refresh(ctx, firstRefresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, apperr.As(err), "storage failure is internal, not an auth rejection")

	// The clear never happened, so the successor still rotates.
	_, err = h.service.Refresh(ctx, rotated.Tokens.RefreshToken)
	assert.NoError(t, err)
}

// # Password Management

/*
TestChangePassword covers the rotation rules for authenticated credential
changes.
*/
func TestChangePassword(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	account := h.activate(t, "ann@x.com", "Abc123!@")

	t.Run("same_password_rejected", func(t *testing.T) {
		err := h.service.ChangePassword(ctx, account.ID, "Abc123!@", "Abc123!@")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("wrong_current_password", func(t *testing.T) {
		err := h.service.ChangePassword(ctx, account.ID, "not-my-password", "Fresh456$%")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("successful_change", func(t *testing.T) {
		require.NoError(t, h.service.ChangePassword(ctx, account.ID, "Abc123!@", "Fresh456$%"))

		_, err := h.service.Login(ctx, "ann@x.com", "Fresh456$%")
		assert.NoError(t, err)
		_, err = h.service.Login(ctx, "ann@x.com", "Abc123!@")
		assert.Error(t, err)
	})
}

/*
TestPasswordReset_Flow covers the forgot-password OTP round trip, including
session revocation and the no-token-issuance rule.
*/
func TestPasswordReset_Flow(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	account := h.activate(t, "ann@x.com", "Abc123!@")
	session, err := h.service.Login(ctx, "ann@x.com", "Abc123!@")
	require.NoError(t, err)

	require.NoError(t, h.service.RequestPasswordReset(ctx, "ann@x.com"))
	code := h.repo.get(t, account.ID).Challenge.Code

	require.NoError(t, h.service.ResetPassword(ctx, "ann@x.com", code, "Fresh456$%"))

	// Old password and old sessions are both dead.
	_, err = h.service.Login(ctx, "ann@x.com", "Abc123!@")
	assert.Error(t, err)
	_, err = h.service.Refresh(ctx, session.Tokens.RefreshToken)
	assert.Error(t, err)

	// The reset code is single-use.
	err = h.service.ResetPassword(ctx, "ann@x.com", code, "Again789^&")
	require.Error(t, err)
	assert.True(t, apperr.IsChallenge(err))

	_, err = h.service.Login(ctx, "ann@x.com", "Fresh456$%")
	assert.NoError(t, err)
}

/*
TestRequestPasswordReset_UnknownEmail verifies the anti-enumeration
behavior: unknown addresses are acknowledged silently.
*/
func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	h := newTestHarness(t)

	err := h.service.RequestPasswordReset(context.Background(), "nobody@x.com")
	assert.NoError(t, err)
	assert.Empty(t, h.notifier.messages)
}

// # Account Removal

/*
TestDeleteAccount verifies the ownership/admin authorization matrix.
*/
func TestDeleteAccount(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	owner := h.activate(t, "owner@x.com", "Abc123!@")
	other := h.activate(t, "other@x.com", "Abc123!@")

	t.Run("stranger_forbidden", func(t *testing.T) {
		err := h.service.DeleteAccount(ctx, other.ID, sec.RoleBuyer, owner.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("admin_allowed", func(t *testing.T) {
		require.NoError(t, h.service.DeleteAccount(ctx, other.ID, sec.RoleAdmin, owner.ID))
		_, err := h.service.Login(ctx, "owner@x.com", "Abc123!@")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("self_allowed", func(t *testing.T) {
		require.NoError(t, h.service.DeleteAccount(ctx, other.ID, sec.RoleBuyer, other.ID))
	})
}
