package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/internal/services"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
)

// LoginGuardService is the two-step login flow
type LoginGuardService interface {
	InitiateLogin(ctx context.Context, email, password string, client services.ClientContext) (*services.LoginChallenge, error)
	VerifyOTP(ctx context.Context, email, code string, client services.ClientContext) (*models.AccountProfile, error)
	ResendOTP(ctx context.Context, email string, client services.ClientContext) (*services.LoginChallenge, error)
}

// AccountRegistrar creates accounts
type AccountRegistrar interface {
	Register(ctx context.Context, email, password, displayName, avatarURL string, client services.ClientContext) (*models.AccountProfile, error)
}

// SessionBinder issues, rotates and revokes sessions
type SessionBinder interface {
	Bind(ctx context.Context, profile *models.AccountProfile) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, access *models.TokenClaims, refreshToken string, client services.ClientContext) error
}

// LoginRateLimiter refuses clients with too many recent failures
type LoginRateLimiter interface {
	CheckRateLimit(ctx context.Context, client services.ClientContext) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	guard        LoginGuardService
	accounts     AccountRegistrar
	sessions     SessionBinder
	rateLimiter  LoginRateLimiter
	ipResolver   *pkghttp.IPResolver
	cookieConfig auth.CookieConfig
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. rateLimiter and ipResolver may be nil.
func NewAuthHandler(
	guard LoginGuardService,
	accounts AccountRegistrar,
	sessions SessionBinder,
	rateLimiter LoginRateLimiter,
	ipResolver *pkghttp.IPResolver,
	cookieConfig auth.CookieConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		guard:        guard,
		accounts:     accounts,
		sessions:     sessions,
		rateLimiter:  rateLimiter,
		ipResolver:   ipResolver,
		cookieConfig: cookieConfig,
		logger:       logger,
	}
}

// Request DTOs

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,max=128"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=2048"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Response DTOs

// AcceptedResponse acknowledges an asynchronous step without revealing account state
type AcceptedResponse struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type VerifyOTPResponse struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	ExpiresIn   int                    `json:"expires_in"`
	Account     *models.AccountProfile `json:"account"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *AuthHandler) clientContext(r *http.Request) services.ClientContext {
	return services.ClientContext{
		IPAddress: h.ipResolver.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// decodeAndValidate writes a 400 and returns false when the body is unusable
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := pkghttp.DecodeJSON(w, r, dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		writeValidationFailure(w, err)
		return false
	}
	return true
}

// Register creates an account. A duplicate email gets the same response as a new one.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.DisplayName, req.AvatarURL, h.clientContext(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			// fall through to the generic acceptance
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password does not meet requirements")
			return
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, AcceptedResponse{Status: "registered"})
}

// Login checks the password and dispatches a one-time code
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client := h.clientContext(r)
	if !h.allow(w, r, client) {
		return
	}

	challenge, err := h.guard.InitiateLogin(r.Context(), req.Email, req.Password, client)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, AcceptedResponse{Status: "otp_sent", ExpiresAt: &challenge.ExpiresAt})
}

// VerifyOTP completes the login and binds a session
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client := h.clientContext(r)
	if !h.allow(w, r, client) {
		return
	}

	profile, err := h.guard.VerifyOTP(r.Context(), req.Email, req.Code, client)
	if err != nil {
		writeVerifyError(w, err)
		return
	}

	pair, err := h.sessions.Bind(r.Context(), profile)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if !h.setSessionCookies(w, pair) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyOTPResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   pair.ExpiresIn,
		Account:     profile,
	})
}

// ResendOTP issues a fresh code. Unknown emails get the same response as known ones.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client := h.clientContext(r)
	if !h.allow(w, r, client) {
		return
	}

	_, err := h.guard.ResendOTP(r.Context(), req.Email, client)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		writeGuardError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, AcceptedResponse{Status: "otp_sent"})
}

// Refresh rotates the session held in the refresh cookie
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil || refreshToken == "" {
		pkghttp.WriteUnauthorized(w, "Missing refresh token")
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			auth.ClearSessionCookies(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Invalid or expired refresh token")
		case errors.Is(err, models.ErrAccountLocked):
			auth.ClearSessionCookies(w, h.cookieConfig)
			pkghttp.WriteLocked(w, "Account is temporarily locked")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	if !h.setSessionCookies(w, pair) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   pair.ExpiresIn,
	})
}

// Logout revokes the caller's tokens and clears session cookies
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	refreshToken, _ := auth.GetRefreshTokenCookie(r)
	if err := h.sessions.Logout(r.Context(), claims, refreshToken, h.clientContext(r)); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearSessionCookies(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) allow(w http.ResponseWriter, r *http.Request, client services.ClientContext) bool {
	if h.rateLimiter == nil {
		return true
	}
	if err := h.rateLimiter.CheckRateLimit(r.Context(), client); err != nil {
		pkghttp.WriteTooManyRequests(w, "Too many failed attempts. Please try again later.")
		return false
	}
	return true
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair *auth.TokenPair) bool {
	csrfToken, err := auth.GenerateCSRFToken()
	if err != nil {
		h.logger.Error("failed to generate csrf token", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return false
	}
	auth.SetSessionCookies(w, pair.RefreshToken, csrfToken, pair.RefreshExpiresAt, h.cookieConfig)
	return true
}

// writeVerifyError answers every rejected code the same way, whether the email is
// unknown, the code is wrong or expired, or its attempts are spent
func writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvalidOrExpiredOTP),
		errors.Is(err, models.ErrOTPAttemptsExceeded):
		pkghttp.WriteUnauthorized(w, "Invalid or expired code")
	default:
		writeGuardError(w, err)
	}
}

// writeGuardError maps login guard sentinels to responses. Causes that would reveal
// whether an account exists share one shape.
func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrNotFound):
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, models.ErrInvalidOrExpiredOTP),
		errors.Is(err, models.ErrOTPAttemptsExceeded):
		pkghttp.WriteUnauthorized(w, "Invalid or expired code")
	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteLocked(w, "Account is temporarily locked. Please try again later.")
	case errors.Is(err, models.ErrNotificationDeliveryFailed):
		pkghttp.WriteServiceUnavailable(w, "Unable to deliver login code. Please try again.")
	case errors.Is(err, models.ErrRateLimitExceeded):
		pkghttp.WriteTooManyRequests(w, "Too many failed attempts. Please try again later.")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
