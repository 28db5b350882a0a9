// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/platform/sec"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef"
	testRefreshSecret = "refresh-secret-fedcba9876543210"
	testIssuer        = "stocktrail.test"
)

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) *sec.TokenService {
	t.Helper()

	service, err := sec.NewTokenService(testAccessSecret, testRefreshSecret, testIssuer, accessTTL, refreshTTL)
	require.NoError(t, err)
	return service
}

/*
TestHashPassword_RoundTrip verifies hashing and verification of passwords.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-passw0rd", hash)

	assert.True(t, sec.CheckPasswordHash("s3cret-passw0rd", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
}

/*
TestHashPassword_SaltedPerCall verifies that two hashes of the same
plaintext differ (per-call salt).
*/
func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := sec.HashPassword("same-input")
	require.NoError(t, err)

	second, err := sec.HashPassword("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, sec.CheckPasswordHash("same-input", first))
	assert.True(t, sec.CheckPasswordHash("same-input", second))
}

/*
TestHashToken verifies the digest is deterministic and input-sensitive.
*/
func TestHashToken(t *testing.T) {
	digest := sec.HashToken("some-refresh-token")

	assert.Len(t, digest, 64) // SHA-256 hex
	assert.Equal(t, digest, sec.HashToken("some-refresh-token"))
	assert.NotEqual(t, digest, sec.HashToken("some-other-token"))
}

/*
TestNewTokenService_RejectsBadSecrets verifies constructor guards.
*/
func TestNewTokenService_RejectsBadSecrets(t *testing.T) {
	_, err := sec.NewTokenService("", testRefreshSecret, testIssuer, time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = sec.NewTokenService("shared", "shared", testIssuer, time.Minute, time.Hour)
	assert.Error(t, err)
}

/*
TestTokenService_AccessRoundTrip verifies an access token carries the
account identity and role through sign and verify.
*/
func TestTokenService_AccessRoundTrip(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 24*time.Hour)

	token, err := service.GenerateAccessToken("account-42", string(sec.RoleManager))
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "account-42", claims.UserID)
	assert.Equal(t, string(sec.RoleManager), claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)
}

/*
TestTokenService_DualSecrets verifies that each verifier structurally
rejects the other token kind.
*/
func TestTokenService_DualSecrets(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 24*time.Hour)

	accessToken, err := service.GenerateAccessToken("account-42", string(sec.RoleBuyer))
	require.NoError(t, err)

	refreshToken, err := service.GenerateRefreshToken("account-42")
	require.NoError(t, err)

	_, err = service.VerifyRefreshToken(accessToken)
	assert.Error(t, err, "access token must not pass refresh verification")

	_, err = service.VerifyToken(refreshToken)
	assert.Error(t, err, "refresh token must not pass access verification")
}

/*
TestTokenService_Expiry verifies that an expired token is rejected.
*/
func TestTokenService_Expiry(t *testing.T) {
	service := newTestTokenService(t, -time.Minute, 24*time.Hour)

	token, err := service.GenerateAccessToken("account-42", string(sec.RoleBuyer))
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_RefreshTokensUnique verifies that two refresh tokens
minted back to back never collide.
*/
func TestTokenService_RefreshTokensUnique(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 24*time.Hour)

	first, err := service.GenerateRefreshToken("account-42")
	require.NoError(t, err)

	second, err := service.GenerateRefreshToken("account-42")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestUserRole_Hierarchy verifies role comparison used by route guards.
*/
func TestUserRole_Hierarchy(t *testing.T) {
	tests := []struct {
		name    string
		role    sec.UserRole
		target  sec.UserRole
		atLeast bool
	}{
		{"admin_meets_manager", sec.RoleAdmin, sec.RoleManager, true},
		{"manager_meets_manager", sec.RoleManager, sec.RoleManager, true},
		{"buyer_below_manager", sec.RoleBuyer, sec.RoleManager, false},
		{"unknown_below_buyer", sec.UserRole("ghost"), sec.RoleBuyer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.atLeast, tt.role.AtLeast(tt.target))
		})
	}

	assert.True(t, sec.RoleBuyer.IsValid())
	assert.False(t, sec.UserRole("ghost").IsValid())
}
