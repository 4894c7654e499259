package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestCSRFProtection(t *testing.T) {
	handler := CSRFProtection(slog.Default())(okHandler())

	tests := []struct {
		name       string
		method     string
		cookie     string
		header     string
		wantStatus int
	}{
		{"safe method passes", "GET", "", "", http.StatusOK},
		{"matching tokens", "POST", "abc123", "abc123", http.StatusOK},
		{"missing header", "POST", "abc123", "", http.StatusForbidden},
		{"missing cookie", "POST", "", "abc123", http.StatusForbidden},
		{"mismatch", "POST", "abc123", "abc124", http.StatusForbidden},
		{"delete is checked", "DELETE", "abc123", "zzz", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/auth/refresh", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.CSRFTokenCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(auth.CSRFTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
