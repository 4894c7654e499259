package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)

	assert.Equal(t, 5, cfg.LoginGuard.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginGuard.LockoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.LoginGuard.OTPExpiry)
	assert.Equal(t, 3, cfg.LoginGuard.MaxOTPAttempts)
	assert.Equal(t, OTPStorePostgres, cfg.LoginGuard.OTPStoreDriver)

	assert.Equal(t, NotifierLog, cfg.Notifier.Driver)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "taskvault", cfg.Database.Name)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "7")
	t.Setenv("LOCKOUT_DURATION", "1h")
	t.Setenv("OTP_STORE_DRIVER", "redis")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 7, cfg.LoginGuard.MaxLoginAttempts)
	assert.Equal(t, time.Hour, cfg.LoginGuard.LockoutDuration)
	assert.Equal(t, OTPStoreRedis, cfg.LoginGuard.OTPStoreDriver)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Run("jwt secret", func(t *testing.T) {
		t.Setenv("DB_PASSWORD", "test")
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("db password", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
		t.Setenv("DB_PASSWORD", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PolicyValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero login attempts", "MAX_LOGIN_ATTEMPTS", "0"},
		{"zero otp attempts", "MAX_OTP_ATTEMPTS", "0"},
		{"zero lockout", "LOCKOUT_DURATION", "0s"},
		{"unknown otp driver", "OTP_STORE_DRIVER", "memcached"},
		{"unknown notifier", "NOTIFIER_DRIVER", "carrier-pigeon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_NotifierRequirements(t *testing.T) {
	t.Run("smtp without host", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NOTIFIER_DRIVER", "smtp")
		t.Setenv("EMAIL_FROM", "noreply@taskvault.test")

		_, err := Load()
		assert.ErrorContains(t, err, "SMTP_HOST")
	})

	t.Run("ses without sender", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NOTIFIER_DRIVER", "ses")

		_, err := Load()
		assert.ErrorContains(t, err, "EMAIL_FROM")
	})

	t.Run("smtp configured", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NOTIFIER_DRIVER", "smtp")
		t.Setenv("EMAIL_FROM", "noreply@taskvault.test")
		t.Setenv("SMTP_HOST", "mail.taskvault.test")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 587, cfg.Notifier.SMTPPort)
	})
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"dev minimum length", "sixteen-chars-ok", "development", false},
		{"dev too short", "short", "development", true},
		{"prod requires 32", "sixteen-chars-ok", "production", true},
		{"prod long enough", "a-very-long-production-secret-value!", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "tv", Password: "pw", Name: "taskvault", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=tv password=pw dbname=taskvault sslmode=require", c.DSN())
}
