package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "development"})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	expected := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "no-referrer",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": apiContentSecurityPolicy,
	}
	for header, want := range expected {
		assert.Equal(t, want, w.Header().Get(header), header)
	}
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		proto    string
		wantHSTS bool
	}{
		{"production behind tls proxy", "production", "https", true},
		{"production plain http", "production", "", false},
		{"development over tls proxy", "development", "https", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeaders(SecurityHeadersConfig{Env: tt.env})(okHandler())
			req := httptest.NewRequest("GET", "/", nil)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantHSTS, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}
