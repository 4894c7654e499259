package models

import (
	"time"
)

// Account is a TaskVault login identity together with its lockout state.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	DisplayName       string
	AvatarURL         string
	FailedAttempts    int
	IsLocked          bool
	LastFailedAttempt *time.Time
	LastLogin         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LockoutExpired reports whether a locked account's lockout window has elapsed at now.
func (a *Account) LockoutExpired(now time.Time, window time.Duration) bool {
	if a.LastFailedAttempt == nil {
		return true
	}
	return !now.Before(a.LastFailedAttempt.Add(window))
}

// Profile returns the minimal view handed to the session binder.
func (a *Account) Profile() *AccountProfile {
	return &AccountProfile{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
		LastLogin:   a.LastLogin,
	}
}

// AccountProfile is what a successful OTP verification yields.
type AccountProfile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}
