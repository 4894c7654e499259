package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login guard errors
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrAccountLocked              = errors.New("account is temporarily locked")
	ErrInvalidOrExpiredOTP        = errors.New("invalid or expired code")
	ErrOTPAttemptsExceeded        = errors.New("too many code attempts")
	ErrNotificationDeliveryFailed = errors.New("failed to deliver verification code")

	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
