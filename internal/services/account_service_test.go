package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Register_Success(t *testing.T) {
	accounts := newMemAccountStore()
	audit := &MockAuditSink{}
	svc := NewAccountService(accounts, audit, slog.Default())

	profile, err := svc.Register(context.Background(), " Bob@Example.com ", testPassword, "  Bob ", "https://cdn.example.com/bob.png", testClient)

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", profile.Email)
	assert.Equal(t, "Bob", profile.DisplayName)
	assert.Equal(t, "https://cdn.example.com/bob.png", profile.AvatarURL)

	stored := accounts.get("bob@example.com")
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, testPassword))

	require.Equal(t, 1, audit.Count())
	assert.Equal(t, models.SecurityActionAccountCreated, audit.Last().Action)
}

func TestAccountService_Register_WeakPassword(t *testing.T) {
	svc := NewAccountService(newMemAccountStore(), &MockAuditSink{}, slog.Default())

	_, err := svc.Register(context.Background(), "bob@example.com", "password", "Bob", "", testClient)

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	accounts := newMemAccountStore(NewTestAccount("acct-1", testEmail, "hash"))
	svc := NewAccountService(accounts, &MockAuditSink{}, slog.Default())

	_, err := svc.Register(context.Background(), testEmail, testPassword, "Alice", "", testClient)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAccountService_Register_LookupError(t *testing.T) {
	accounts := &MockAccountStore{
		FindByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := NewAccountService(accounts, &MockAuditSink{}, slog.Default())

	_, err := svc.Register(context.Background(), testEmail, testPassword, "Alice", "", testClient)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAccountService_Unlock(t *testing.T) {
	locked := NewTestAccount("acct-1", testEmail, "hash")
	locked.IsLocked = true
	locked.FailedAttempts = 5
	accounts := newMemAccountStore(locked)
	audit := &MockAuditSink{}
	svc := NewAccountService(accounts, audit, slog.Default())

	require.NoError(t, svc.Unlock(context.Background(), "ALICE@example.com"))

	account := accounts.get(testEmail)
	assert.False(t, account.IsLocked)
	assert.Equal(t, 0, account.FailedAttempts)
	assert.Equal(t, models.SecurityActionAccountUnlock, audit.Last().Action)

	assert.ErrorIs(t, svc.Unlock(context.Background(), "nobody@example.com"), models.ErrNotFound)
}

func TestAccountService_GetProfile(t *testing.T) {
	accounts := newMemAccountStore(NewTestAccount("acct-1", testEmail, "hash"))
	svc := NewAccountService(accounts, &MockAuditSink{}, slog.Default())

	profile, err := svc.GetProfile(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, testEmail, profile.Email)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
