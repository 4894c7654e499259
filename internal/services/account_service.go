package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/pkg/auth"
)

// AccountService handles registration and administrative account actions.
// Login itself goes through LoginGuard.
type AccountService struct {
	repo   AccountStore
	audit  AuditSink
	logger *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountStore, audit AuditSink, logger *slog.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}
}

// Register creates an account with a validated, hashed password
func (s *AccountService) Register(ctx context.Context, email, password, displayName, avatarURL string, client ClientContext) (*models.AccountProfile, error) {
	email = normalizeEmail(email)

	if err := auth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Info("account already exists")
		return nil, models.ErrConflict
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		AvatarURL:    strings.TrimSpace(avatarURL),
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accountID := account.ID
	event := &models.SecurityEvent{
		Action:     models.SecurityActionAccountCreated,
		ActorEmail: email,
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

	return account.Profile(), nil
}

// GetProfile returns the public view of an account
func (s *AccountService) GetProfile(ctx context.Context, id string) (*models.AccountProfile, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return account.Profile(), nil
}

// Unlock clears lockout state ahead of the lockout window. Used by operators.
func (s *AccountService) Unlock(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.ClearLockAndFailures(ctx, account.ID); err != nil {
		s.logger.Error("failed to unlock account", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	accountID := account.ID
	s.audit.Record(ctx, &models.SecurityEvent{
		Action:     models.SecurityActionAccountUnlock,
		ActorEmail: email,
		ActorID:    &accountID,
		Success:    true,
		Metadata:   models.EventMetadata{"source": "operator"},
	})
	s.logger.Info("account unlocked", slog.String("account_id", account.ID))

	return nil
}
