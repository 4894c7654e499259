package auth

import (
	"strings"
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{"valid strong password", "SecureP@ss123", false},
		{"too short", "Pass@1", true},
		{"missing uppercase", "securepass@123", true},
		{"missing lowercase", "SECUREPASS@123", true},
		{"missing digit", "SecurePass@xyz", true},
		{"missing special character", "SecurePass123", true},
		{"common password rejected", "password123", true},
		{"valid with symbols", "MyP@ssw0rd!", false},
		{"too long", "Aa1@" + strings.Repeat("x", 150), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.shouldFail {
				require.Error(t, err)
				assert.Equal(t, "invalid password", err.Error(), "message must not reveal which rule failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_ListsViolations(t *testing.T) {
	err := ValidatePassword("password")

	var verr *PasswordValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "must contain at least one uppercase letter")
	assert.Contains(t, verr.Violations, "must contain at least one digit")
	assert.Contains(t, verr.Violations, "is a commonly used password")
	assert.NotContains(t, verr.Violations, "must contain at least one lowercase letter")
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.ErrorIs(t, ComparePassword(hash, "WrongPassword123!"), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestComparePassword_Argon2(t *testing.T) {
	cfg := argon2.DefaultConfig()
	encoded, err := cfg.HashEncoded([]byte("Imported#Pass1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(encoded), argon2Prefix))

	assert.NoError(t, ComparePassword(string(encoded), "Imported#Pass1"))
	assert.ErrorIs(t, ComparePassword(string(encoded), "Imported#Pass2"), ErrPasswordMismatch)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	err := ComparePassword("not-a-hash", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestDummyHash(t *testing.T) {
	first := DummyHash()
	assert.Equal(t, first, DummyHash(), "dummy hash is computed once")
	assert.ErrorIs(t, ComparePassword(first, "SecureP@ss123"), ErrPasswordMismatch)
}
