package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	k, err := NewKeys("test-secret")
	require.NoError(t, err)

	token, err := k.GenerateToken("user-1", "a@x.com", RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := k.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	k1, err := NewKeys("secret-one")
	require.NoError(t, err)
	k2, err := NewKeys("secret-two")
	require.NoError(t, err)

	token, err := k1.GenerateToken("user-1", "a@x.com", RoleRetailer)
	require.NoError(t, err)

	_, err = k2.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	k, err := NewKeys("test-secret")
	require.NoError(t, err)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Email: "a@x.com",
		Role:  RoleCustomer,
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = k.VerifyToken(expired)
	assert.Error(t, err)
}

func TestNewKeysRequiresSecret(t *testing.T) {
	_, err := NewKeys("")
	assert.Error(t, err)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleCustomer))
	assert.True(t, ValidRole(RoleRetailer))
	assert.True(t, ValidRole(RoleWholesaler))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}
