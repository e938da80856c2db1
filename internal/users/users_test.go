package users

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)

	u := User{Password: string(hash)}
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong-pass"))
	assert.False(t, u.CheckPassword(""))
}

func TestCheckPasswordNoHash(t *testing.T) {
	// Social accounts carry no password hash and must never authenticate
	// with one.
	u := User{}
	assert.False(t, u.CheckPassword("anything"))
}

func TestUserPasswordNeverSerializes(t *testing.T) {
	u := User{Name: "Asha", Email: "asha@example.com", Password: "hash"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.Contains(t, string(data), "asha@example.com")
}
