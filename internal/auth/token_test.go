package auth

import (
	"testing"
	"time"

	"homepro_backend/internal/config"
	"homepro_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T, ttlMinutes int) {
	t.Helper()
	config.AppConfig = &config.Config{}
	config.AppConfig.JWT.Secret = "test-secret"
	config.AppConfig.JWT.TTL = ttlMinutes
}

func TestTokenRoundTrip(t *testing.T) {
	setTestConfig(t, 60)

	user := &models.User{ID: "user-1", Name: "Alice", Role: models.UserRoleStaff}
	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, models.UserRoleStaff, claims.Role)
	assert.Equal(t, "homepro", claims.Issuer)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	setTestConfig(t, 60)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "user-1"})
	signed, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = ParseToken(signed)
	assert.Error(t, err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	setTestConfig(t, 60)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken(signed)
	assert.Error(t, err)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	setTestConfig(t, 60)

	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}
