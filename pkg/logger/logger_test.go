package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"user@example.com", "u***@*******.com"},
		{"a@mail.taskvault.io", "a@****.*********.io"},
		{"no-at-sign", "[invalid-email]"},
		{"a@b@c.com", "[invalid-email]"},
		{"x@localhost", "x@localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.email))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("email=a@b.com"))
	assert.True(t, SanitizeQueryString("Token=abc"))
	assert.True(t, SanitizeQueryString("status=done&otp_code=1"))
	assert.True(t, SanitizeQueryString("bad=%zz"))
	assert.False(t, SanitizeQueryString("status=done&priority=high"))
	assert.False(t, SanitizeQueryString(""))
}

func TestAuditLogger_LogSecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogSecurityEvent(context.Background(), SecurityEvent{
		Action:        "LOGIN_ATTEMPT",
		ActorEmail:    "user@example.com",
		IPAddress:     "203.0.113.1",
		Success:       false,
		FailureReason: "invalid_password",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "LOGIN_ATTEMPT", entry["action"])
	assert.Equal(t, "u***@*******.com", entry["email"])
	assert.Equal(t, "invalid_password", entry["failure_reason"])
	assert.NotContains(t, buf.String(), "user@example.com")
	assert.NotContains(t, entry, "account_id")
}
