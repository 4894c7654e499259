package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/models"
)

// TokenRevocationRepository defines the interface for token revocation storage
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, token *models.RevokedToken) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionService binds sessions to accounts that completed the login guard,
// and rotates and revokes them afterwards
type SessionService struct {
	tokens      *auth.TokenManager
	revocations TokenRevocationRepository
	accounts    AccountStore
	audit       AuditSink
	logger      *slog.Logger
}

func NewSessionService(tokens *auth.TokenManager, revocations TokenRevocationRepository, accounts AccountStore, audit AuditSink, logger *slog.Logger) *SessionService {
	return &SessionService{
		tokens:      tokens,
		revocations: revocations,
		accounts:    accounts,
		audit:       audit,
		logger:      logger,
	}
}

// Bind issues a token pair for a verified account profile
func (s *SessionService) Bind(ctx context.Context, profile *models.AccountProfile) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(profile)
	if err != nil {
		s.logger.Error("failed to issue tokens", slog.String("account_id", profile.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is revoked.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check refresh token revocation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.logger.Warn("revoked refresh token presented", slog.String("account_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	// A locked account keeps no sessions alive through refresh
	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load account for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if account.IsLocked {
		return nil, models.ErrAccountLocked
	}

	if err := s.revoke(ctx, claims, models.RevocationReasonRotated); err != nil {
		s.logger.Error("failed to revoke rotated refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.Bind(ctx, account.Profile())
}

// Logout revokes the access token and, when present, the refresh token
func (s *SessionService) Logout(ctx context.Context, access *models.TokenClaims, refreshToken string, client ClientContext) error {
	if err := s.revoke(ctx, access, models.RevocationReasonLogout); err != nil {
		s.logger.Error("failed to revoke access token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if refreshToken != "" {
		refresh, err := s.tokens.ValidateToken(refreshToken, auth.TokenTypeRefresh)
		if err == nil && refresh.UserID == access.UserID {
			if err := s.revoke(ctx, refresh, models.RevocationReasonLogout); err != nil {
				s.logger.Error("failed to revoke refresh token", slog.Any("error", err))
				return models.ErrInternalServer
			}
		}
	}

	accountID := access.UserID
	event := &models.SecurityEvent{
		Action:     models.SecurityActionLogout,
		ActorEmail: access.Email,
		ActorID:    &accountID,
		Success:    true,
	}
	if client.IPAddress != "" {
		event.IPAddress = &client.IPAddress
	}
	if client.UserAgent != "" {
		event.UserAgent = &client.UserAgent
	}
	s.audit.Record(ctx, event)

	return nil
}

func (s *SessionService) revoke(ctx context.Context, claims *models.TokenClaims, reason string) error {
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.revocations.Revoke(ctx, &models.RevokedToken{
		JTI:       claims.ID,
		AccountID: claims.UserID,
		TokenType: claims.Type,
		ExpiresAt: expiresAt,
		Reason:    reason,
	})
}
