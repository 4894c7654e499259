package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/taskvault/internal/metrics"
)

// ExpiredChallengePurger removes one-time code challenges past their expiry
type ExpiredChallengePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// ExpiredTokenCleaner removes revocation records for tokens that have expired anyway
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// CleanupManager periodically purges expired challenges and revocation records
type CleanupManager struct {
	challenges ExpiredChallengePurger
	tokens     ExpiredTokenCleaner
	logger     *slog.Logger
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	challenges ExpiredChallengePurger,
	tokens ExpiredTokenCleaner,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		challenges: challenges,
		tokens:     tokens,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx is done
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single cleanup pass. Failures are logged, never returned.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cm.challenges != nil {
		purged, err := cm.challenges.PurgeExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to purge expired challenges", slog.Any("error", err))
		} else if purged > 0 {
			metrics.OTPChallengesPurged.Add(float64(purged))
			cm.logger.Info("expired challenges purged", slog.Int64("rows_deleted", purged))
		}
	}

	if cm.tokens != nil {
		deleted, err := cm.tokens.CleanupExpiredTokens(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
		} else if deleted > 0 {
			cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", deleted))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
