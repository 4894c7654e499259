package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	BaseDelayMs    int  // Minimum response time for a failed attempt
	RandomDelayMs  int  // Random jitter added on top of the base delay
	DelayOnSuccess bool // If true, successful attempts are padded too
}

// TimingDelay pads authentication responses so that failure causes cannot be told apart by latency
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
	}
}

// cryptoRandIntn returns a secure random number between 0 and max (exclusive)
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}

// target returns base delay plus jitter
func (td *TimingDelay) target() time.Duration {
	baseDelay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	if td.config.RandomDelayMs > 0 {
		if randomValue, err := cryptoRandIntn(td.config.RandomDelayMs); err == nil {
			baseDelay += time.Duration(randomValue) * time.Millisecond
		}
	}
	return baseDelay
}

// WaitFrom sleeps until at least the target delay has elapsed since startTime.
// It returns early if ctx is cancelled. A nil TimingDelay never waits.
func (td *TimingDelay) WaitFrom(ctx context.Context, startTime time.Time, success bool) {
	if td == nil || (success && !td.config.DelayOnSuccess) {
		return
	}

	remaining := td.target() - time.Since(startTime)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
