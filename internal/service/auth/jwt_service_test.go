package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-value-0123456789abcdef"

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService("too-short")
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	issuer, err := NewJWTService(testSecret)
	require.NoError(t, err)
	validator, err := NewJWTService("another-jwt-secret-value-0123456789abcdef")
	require.NoError(t, err)

	token, err := issuer.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret)
	require.NoError(t, err)
	impl := svc.(*hmacJWTService)

	// Issue far enough in the past that the lifetime and skew are both spent.
	impl.timeFunc = func() time.Time { return time.Now().Add(-tokenLifetime - time.Hour) }
	token, err := impl.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	impl.timeFunc = time.Now
	_, err = impl.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
