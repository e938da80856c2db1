package otp

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSixDigits(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestValidWithinWindow(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(TTL)

	assert.True(t, Valid("123456", expires, "123456", issued.Add(time.Minute)))
	assert.True(t, Valid("123456", expires, "123456", issued.Add(9*time.Minute)))
}

func TestValidRejectsExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(TTL)

	assert.False(t, Valid("123456", expires, "123456", issued.Add(11*time.Minute)))
}

func TestValidRejectsWrongCode(t *testing.T) {
	expires := time.Now().Add(TTL)
	assert.False(t, Valid("123456", expires, "654321", time.Now()))
	// Case-sensitive comparison, no normalization.
	assert.False(t, Valid("12345a", expires, "12345A", time.Now()))
}
