// Package auth issues and validates the JWT access tokens that identify
// learners. Guests bypass this entirely: they carry a random token in a
// header instead of authenticating.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common authentication errors
var (
	// ErrInvalidToken indicates the token is malformed or its signature
	// does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the learner.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the token string and extracts the claims.
	// Returns ErrExpiredToken or ErrInvalidToken on validation failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims carries the validated identity extracted from a token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
