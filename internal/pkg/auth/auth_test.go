package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "storefront-test"
	cfg.JWT.Secret = strings.Repeat("s", 32)
	cfg.JWT.AccessTokenExpiry = 7 * 24 * time.Hour
	cfg.Security.BcryptCost = bcrypt.MinCost
	return cfg
}

func TestGenerateAndValidateToken(t *testing.T) {
	j := NewJWTManager(testConfig())

	token, expiresAt, err := j.GenerateToken(Principal{UserID: 9, Email: "ana@example.com", Name: "Ana", Role: RoleSeller})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)

	p := claims.Principal()
	assert.Equal(t, uint(9), p.UserID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, RoleSeller, p.Role)
	assert.False(t, p.IsAdmin())
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTManager(testConfig()).GenerateToken(Principal{UserID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = strings.Repeat("x", 32)

	_, err = NewJWTManager(other).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	j := NewJWTManager(testConfig())
	j.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }

	token, _, err := j.GenerateToken(Principal{UserID: 1})
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	_, err := pm.HashPassword("12345")
	assert.Error(t, err)

	hash, err := pm.HashPassword("secret1")
	require.NoError(t, err)
	assert.NoError(t, pm.VerifyPassword("secret1", hash))
	assert.Error(t, pm.VerifyPassword("secret2", hash))
}
