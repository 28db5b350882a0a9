// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/platform/sec"
)

// # Token Issuance & Rotation

// TokenSigner defines the contract for signing and verifying token pairs.
// Access and refresh tokens are signed with distinct secrets; satisfied by
// [sec.TokenService].
type TokenSigner interface {
	GenerateAccessToken(accountID, role string) (string, error)
	GenerateRefreshToken(accountID string) (string, error)
	VerifyRefreshToken(tokenString string) (*sec.AuthClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// TokenPair is a transient issuance result; it is never persisted as an
// entity. Only the refresh token's hash reference lands on the account row.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// TokenIssuer mints token pairs and owns the refresh-token rotation protocol.
//
// A refresh token is valid only while its hash matches the single reference
// stored on the account row; replacing or clearing that reference is the one
// server-side revocation mechanism. Access tokens stay stateless.
type TokenIssuer struct {
	signer     TokenSigner
	repository AccountRepository
}

// NewTokenIssuer constructs a [TokenIssuer] with its dependencies.
func NewTokenIssuer(signer TokenSigner, repository AccountRepository) *TokenIssuer {
	return &TokenIssuer{signer: signer, repository: repository}
}

/*
IssuePair mints a fresh access/refresh token pair for an account.

Description: Signs both tokens and persists the refresh token's hash as the
account's current session reference, displacing any previous session.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - *TokenPair: Transport-ready credentials
  - err: Signing or storage failures (internal)
*/
func (issuer *TokenIssuer) IssuePair(context context.Context, account *Account) (*TokenPair, error) {
	accessToken, err := issuer.signer.GenerateAccessToken(account.ID, string(account.Role))
	if err != nil {
		return nil, fmt.Errorf("token_issuer_access_sign_failed: %w", err)
	}

	refreshToken, err := issuer.signer.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("token_issuer_refresh_sign_failed: %w", err)
	}

	if err := issuer.repository.UpdateRefreshTokenRef(context, account.ID, sec.HashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("token_issuer_persist_ref_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: time.Now().Add(issuer.signer.RefreshTTL()),
	}, nil
}

/*
Rotate exchanges a presented refresh token for a brand new pair.

Description: Verifies the token's signature and expiry, then performs an
atomic compare-and-swap of the stored reference. A stale reference means the
presented token was already rotated once: that is treated as reuse (theft
signal), the stored reference is cleared so every outstanding session must
re-login, and the caller receives Unauthorized.

Parameters:
  - context: context.Context
  - presentedToken: string

Returns:
  - *Account: The session owner
  - *TokenPair: Replacement credentials
  - err: Unauthorized on invalid/reused tokens, internal otherwise
*/
func (issuer *TokenIssuer) Rotate(context context.Context, presentedToken string) (*Account, *TokenPair, error) {
	claims, err := issuer.signer.VerifyRefreshToken(presentedToken)
	if err != nil {
		return nil, nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	account, err := issuer.repository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	accessToken, err := issuer.signer.GenerateAccessToken(account.ID, string(account.Role))
	if err != nil {
		return nil, nil, fmt.Errorf("token_issuer_rotate_access_sign_failed: %w", err)
	}

	refreshToken, err := issuer.signer.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("token_issuer_rotate_refresh_sign_failed: %w", err)
	}

	// Single atomic find-by-old-reference-and-replace. Of two concurrent
	// rotations with the same presented token, exactly one wins.
	swapped, err := issuer.repository.SwapRefreshTokenRef(
		context,
		account.ID,
		sec.HashToken(presentedToken),
		sec.HashToken(refreshToken),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("token_issuer_rotate_swap_failed: %w", err)
	}

	if !swapped {
		// Reuse detected: the presented token was superseded or revoked.
		// Clear the stored reference so the (possibly stolen) live session
		// is forced back through password login. A failed clear leaves the
		// successor token live, so it must surface rather than be dropped.
		if clearErr := issuer.repository.ClearRefreshTokenRef(context, account.ID); clearErr != nil {
			return nil, nil, fmt.Errorf("token_issuer_rotate_revoke_failed: %w", clearErr)
		}
		return nil, nil, apperr.Unauthorized("Refresh token reuse detected; please log in again")
	}

	return account, &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: time.Now().Add(issuer.signer.RefreshTTL()),
	}, nil
}

/*
Revoke clears the account's stored refresh-token reference.

Description: Invalidates the current refresh token without touching the
stateless access token, which simply ages out.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - err: Storage failures
*/
func (issuer *TokenIssuer) Revoke(context context.Context, accountID string) error {
	if err := issuer.repository.ClearRefreshTokenRef(context, accountID); err != nil {
		return fmt.Errorf("token_issuer_revoke_failed: %w", err)
	}
	return nil
}
