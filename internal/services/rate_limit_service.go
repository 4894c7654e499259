package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
)

// FailureCounter counts failed security events in a lookback window
type FailureCounter interface {
	CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
	CountFailuresByDevice(ctx context.Context, fingerprint string, since time.Time) (int, error)
}

// RateLimitConfig holds configuration for rate limiting behavior
type RateLimitConfig struct {
	MaxFailedPerIP     int
	MaxFailedPerDevice int
	LookbackWindow     time.Duration
}

// RateLimitService throttles login traffic from sources with many recent failures.
// It runs in front of the login guard and does not touch account lockout state.
type RateLimitService struct {
	counter FailureCounter
	config  RateLimitConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(counter FailureCounter, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		counter: counter,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckRateLimit returns ErrRateLimitExceeded when the client's IP or device has too many
// recent failures. Lookup errors fail open.
func (s *RateLimitService) CheckRateLimit(ctx context.Context, client ClientContext) error {
	since := s.now().Add(-s.config.LookbackWindow)

	ipFailures, err := s.counter.CountFailuresByIP(ctx, client.IPAddress, since)
	if err != nil {
		// Fail open for availability - DB errors shouldn't block legitimate users
		s.logger.Error("failed to check IP rate limit", slog.Any("error", err))
		return nil
	}
	if ipFailures >= s.config.MaxFailedPerIP {
		s.logger.Warn("IP rate limited",
			slog.String("ip_address", client.IPAddress),
			slog.Int("failed_attempts", ipFailures))
		return models.ErrRateLimitExceeded
	}

	fingerprint := client.DeviceFingerprint()
	deviceFailures, err := s.counter.CountFailuresByDevice(ctx, fingerprint, since)
	if err != nil {
		s.logger.Error("failed to check device rate limit", slog.Any("error", err))
		return nil
	}
	if deviceFailures >= s.config.MaxFailedPerDevice {
		s.logger.Warn("device rate limited",
			slog.String("device_fingerprint", fingerprint),
			slog.Int("failed_attempts", deviceFailures))
		return models.ErrRateLimitExceeded
	}

	return nil
}
