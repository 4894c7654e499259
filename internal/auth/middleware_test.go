package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRevocationChecker struct {
	revoked map[string]bool
	err     error
}

func (m *mockRevocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.revoked[jti], nil
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		require.NotNil(t, claims)
		w.Header().Set("X-User", claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute, time.Hour)
	pair, err := tm.IssuePair(testProfile())
	require.NoError(t, err)
	access, err := tm.ValidateToken(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		checker    TokenRevocationChecker
		failClosed bool
		wantStatus int
	}{
		{"valid access token", "Bearer " + pair.AccessToken, nil, false, http.StatusOK},
		{"lowercase scheme", "bearer " + pair.AccessToken, nil, false, http.StatusOK},
		{"missing header", "", nil, false, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, false, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", nil, false, http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + pair.RefreshToken, nil, false, http.StatusUnauthorized},
		{"revoked token", "Bearer " + pair.AccessToken, &mockRevocationChecker{revoked: map[string]bool{access.ID: true}}, false, http.StatusUnauthorized},
		{"revocation error fails open", "Bearer " + pair.AccessToken, &mockRevocationChecker{err: errors.New("db down")}, false, http.StatusOK},
		{"revocation error fails closed", "Bearer " + pair.AccessToken, &mockRevocationChecker{err: errors.New("db down")}, true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := AuthMiddleware(tm, tt.checker, RevocationConfig{FailClosed: tt.failClosed}, slog.Default())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw(protectedHandler(t)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "acct-1", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestGetUserFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUserFromContext(req))

	claims := &models.TokenClaims{UserID: "acct-1"}
	req = req.WithContext(WithClaims(req.Context(), claims))
	assert.Equal(t, claims, GetUserFromContext(req))
}
