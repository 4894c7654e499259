package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

const (
	RevocationReasonLogout  = "logout"
	RevocationReasonRotated = "rotated"
)

// RevokedToken records an access or refresh token invalidated before expiry
type RevokedToken struct {
	JTI       string
	AccountID string
	TokenType string
	ExpiresAt time.Time
	Reason    string
}
