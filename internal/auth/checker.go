package auth

import (
	"context"
	"fmt"
	"time"
)

var _ Checker = (*TokenChecker)(nil)

type Checker interface {
	// Authenticate returns the user id of a valid, not revoked token.
	Authenticate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type revocations interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type TokenChecker struct {
	verifier    *TokenVerifier
	revocations revocations
}

func NewTokenChecker(verifier *TokenVerifier, revocations revocations) *TokenChecker {
	return &TokenChecker{
		verifier:    verifier,
		revocations: revocations,
	}
}

func (c *TokenChecker) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := c.verifier.Verify(token)
	if err != nil {
		return "", err
	}

	revoked, err := c.revocations.IsRevoked(ctx, token)
	if err != nil {
		return "", fmt.Errorf("check revoked: %w", err)
	}
	if revoked {
		return "", ErrTokenRevoked
	}

	return claims.Subject, nil
}

func (c *TokenChecker) Revoke(ctx context.Context, token string) error {
	claims, err := c.verifier.Verify(token)
	if err != nil {
		return err
	}
	return c.revocations.Revoke(ctx, token, claims.ExpiresAt.Time)
}
