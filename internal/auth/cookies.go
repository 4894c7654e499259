package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

const (
	RefreshTokenCookie = "refresh_token"
	CSRFTokenCookie    = "csrf_token"
	CSRFTokenHeader    = "X-CSRF-Token"
)

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// SetSessionCookies sets the httpOnly refresh cookie and its readable CSRF companion
func SetSessionCookies(w http.ResponseWriter, refreshToken, csrfToken string, expiresAt time.Time, config CookieConfig) {
	maxAge := int(time.Until(expiresAt).Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/api/v1/auth",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})

	// Not httpOnly: the client echoes it in X-CSRF-Token
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFTokenCookie,
		Value:    csrfToken,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// ClearSessionCookies expires both session cookies
func ClearSessionCookies(w http.ResponseWriter, config CookieConfig) {
	for _, c := range []struct {
		name     string
		path     string
		httpOnly bool
	}{
		{RefreshTokenCookie, "/api/v1/auth", true},
		{CSRFTokenCookie, "/", false},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			Domain:   config.Domain,
			MaxAge:   -1,
			HttpOnly: c.httpOnly,
			Secure:   config.Secure,
			SameSite: parseSameSite(config.SameSite),
		})
	}
}

// GetRefreshTokenCookie retrieves the refresh token from cookies
func GetRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GenerateCSRFToken returns 32 random bytes, hex encoded
func GenerateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// parseSameSite converts string to http.SameSite constant
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
