package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-signing-secret")
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "user@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	_, err := NewJWTService("")
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignToken(t *testing.T) {
	svc, err := NewJWTService("test-signing-secret")
	require.NoError(t, err)
	other, err := NewJWTService("different-secret")
	require.NoError(t, err)

	token, err := other.CreateToken(uuid.New(), "user@example.com", time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService("test-signing-secret")
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "user@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc, err := NewJWTService("test-signing-secret")
	require.NoError(t, err)

	_, err = svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
