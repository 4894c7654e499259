package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
	pkglogger "github.com/BradenHooton/taskvault/pkg/logger"
)

// SecurityEventRepository persists and queries security events
type SecurityEventRepository interface {
	Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error)
	CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
	CountFailuresByDevice(ctx context.Context, fingerprint string, since time.Time) (int, error)
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo        SecurityEventRepository
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo SecurityEventRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		auditLogger: pkglogger.NewAuditLogger(logger),
		logger:      logger,
	}
}

// Record writes the event to the structured log and then persists it.
// A persistence failure is logged and swallowed so that auditing never changes an auth outcome.
func (s *AuditService) Record(ctx context.Context, event *models.SecurityEvent) {
	s.auditLogger.LogSecurityEvent(ctx, toLogEvent(event))

	if _, err := s.repo.Create(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist security event",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
	}
}

// ListForAccount returns the newest security events for the account's email
func (s *AuditService) ListForAccount(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.repo.ListByEmail(ctx, normalizeEmail(email), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	return events, nil
}

func toLogEvent(event *models.SecurityEvent) pkglogger.SecurityEvent {
	logEvent := pkglogger.SecurityEvent{
		Action:     event.Action,
		ActorEmail: event.ActorEmail,
		Success:    event.Success,
	}
	if event.ActorID != nil {
		logEvent.ActorID = *event.ActorID
	}
	if event.IPAddress != nil {
		logEvent.IPAddress = *event.IPAddress
	}
	if event.UserAgent != nil {
		logEvent.UserAgent = *event.UserAgent
	}
	if event.FailureReason != nil {
		logEvent.FailureReason = *event.FailureReason
	}
	return logEvent
}
