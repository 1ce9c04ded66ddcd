package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "evento/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "evento", "evento-api")
	userID := uuid.New()

	signed, err := svc.GenerateAccessToken(userID, "satoshi", "https://cdn.evento.app/a/satoshi.png", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "satoshi", claims.Username)
	assert.Equal(t, "https://cdn.evento.app/a/satoshi.png", claims.AvatarURL)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key", "evento", "evento-api")

	signed, err := svc.GenerateAccessToken(uuid.New(), "satoshi", "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsWrongKey(t *testing.T) {
	signed, err := NewService("key-one", "evento", "evento-api").
		GenerateAccessToken(uuid.New(), "satoshi", "", time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-two", "evento", "evento-api").ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnauthorized))
}
