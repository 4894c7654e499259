package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "taskvault"
)

// TokenPair is what a completed login or refresh hands back to the client
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"-"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int       `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"-"`
}

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

// RefreshTokenExpiry is the lifetime of refresh tokens, used for cookie max-age
func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// IssuePair binds a session to a verified account
func (tm *TokenManager) IssuePair(profile *models.AccountProfile) (*TokenPair, error) {
	access, _, err := tm.generate(TokenTypeAccess, profile.ID, profile.Email, tm.accessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refresh, refreshExpiry, err := tm.generate(TokenTypeRefresh, profile.ID, profile.Email, tm.refreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int(tm.accessTokenExpiry.Seconds()),
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// generate signs a token with a fresh JTI
func (tm *TokenManager) generate(tokenType, userID, email string, ttl time.Duration) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)

	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tokenIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken verifies a token of the expected type and returns its claims
func (tm *TokenManager) ValidateToken(tokenString, expectedType string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", errors.Join(models.ErrUnauthorized, err))
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != expectedType {
		return nil, fmt.Errorf("invalid token: expected %s token: %w", expectedType, models.ErrUnauthorized)
	}

	if claims.ID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: missing claims: %w", models.ErrUnauthorized)
	}

	return claims, nil
}
