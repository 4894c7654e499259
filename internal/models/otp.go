package models

import (
	"time"
)

// OTPChallenge is a one-time login code issued after a successful password check
type OTPChallenge struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CodeHash  string     `json:"-"` // Never expose code hash
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired checks if the challenge has expired at now
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsUsed checks if the challenge has already been consumed
func (c *OTPChallenge) IsUsed() bool {
	return c.UsedAt != nil
}

// IsValid checks if the challenge is still live (not expired and not used)
func (c *OTPChallenge) IsValid(now time.Time) bool {
	return !c.IsExpired(now) && !c.IsUsed()
}
