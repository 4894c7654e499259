package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Security event actions
const (
	SecurityActionLoginAttempt   = "LOGIN_ATTEMPT"
	SecurityActionOTPSent        = "OTP_SENT"
	SecurityActionOTPVerify      = "OTP_VERIFY"
	SecurityActionAccountCreated = "ACCOUNT_CREATED"
	SecurityActionAccountUnlock  = "ACCOUNT_UNLOCK"
	SecurityActionLogout         = "LOGOUT"
)

// Failure reasons recorded on unsuccessful events
const (
	FailureReasonUnknownEmail       = "unknown_email"
	FailureReasonInvalidPassword    = "invalid_password"
	FailureReasonAccountLocked      = "account_locked"
	FailureReasonNotificationFailed = "notification_failed"
	FailureReasonInvalidCode        = "invalid_or_expired_code"
	FailureReasonAttemptsExceeded   = "attempts_exceeded"
	FailureReasonInternalError      = "internal_error"
)

// SecurityEvent is an append-only audit record of an authentication action
type SecurityEvent struct {
	ID                uuid.UUID     `json:"id"`
	Action            string        `json:"action"`
	ActorEmail        string        `json:"actor_email"`
	ActorID           *string       `json:"actor_id,omitempty"`
	Success           bool          `json:"success"`
	FailureReason     *string       `json:"failure_reason,omitempty"`
	IPAddress         *string       `json:"ip_address,omitempty"`
	UserAgent         *string       `json:"user_agent,omitempty"`
	DeviceFingerprint *string       `json:"-"`
	Metadata          EventMetadata `json:"metadata,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// EventMetadata holds additional context for security events
type EventMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (em *EventMetadata) Scan(value interface{}) error {
	if value == nil {
		*em = make(EventMetadata)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*em = EventMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (em EventMetadata) Value() (driver.Value, error) {
	if em == nil {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(em))
}
