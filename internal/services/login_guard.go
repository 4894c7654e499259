package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/metrics"
	"github.com/BradenHooton/taskvault/internal/models"
	pkgauth "github.com/BradenHooton/taskvault/pkg/auth"
	pkglogger "github.com/BradenHooton/taskvault/pkg/logger"
)

// AccountStore persists accounts and their lockout state
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int, at time.Time) (*models.Account, error)
	ClearLockAndFailures(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) (*models.Account, error)
}

// OTPStore persists one-time login challenges
type OTPStore interface {
	Create(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error)
	FindValid(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	MarkUsed(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuditSink receives security events. Recording never fails the caller.
type AuditSink interface {
	Record(ctx context.Context, event *models.SecurityEvent)
}

// CodeSender delivers a one-time code to the account's email address
type CodeSender interface {
	SendCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// ClientContext carries request metadata into security events
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// DeviceFingerprint hashes IP and User-Agent into a stable device identifier
func (c ClientContext) DeviceFingerprint() string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", c.IPAddress, c.UserAgent)))
	return fmt.Sprintf("%x", hash)[:32]
}

// LoginChallenge acknowledges that a code was issued. It carries no secret.
type LoginChallenge struct {
	Email     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginGuardConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	OTPExpiry        time.Duration
	MaxOTPAttempts   int
}

// DefaultLoginGuardConfig returns the standard lockout and code policy
func DefaultLoginGuardConfig() LoginGuardConfig {
	return LoginGuardConfig{
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		OTPExpiry:        10 * time.Minute,
		MaxOTPAttempts:   3,
	}
}

// LoginGuard runs password check, lockout accounting and one-time code issuance and verification.
// Account and challenge records are the only state; the guard itself is safe for concurrent use.
type LoginGuard struct {
	accounts     AccountStore
	otps         OTPStore
	audit        AuditSink
	sender       CodeSender
	timing       *auth.TimingDelay
	config       LoginGuardConfig
	logger       *slog.Logger
	now          func() time.Time
	generateCode func() (string, error)
	dummyHash    func() string
}

type LoginGuardOption func(*LoginGuard)

// WithClock replaces time.Now for lockout and expiry decisions
func WithClock(now func() time.Time) LoginGuardOption {
	return func(g *LoginGuard) { g.now = now }
}

// WithCodeGenerator replaces the random code source
func WithCodeGenerator(gen func() (string, error)) LoginGuardOption {
	return func(g *LoginGuard) { g.generateCode = gen }
}

// WithDummyHash sets the hash compared against when the email is unknown
func WithDummyHash(hash string) LoginGuardOption {
	return func(g *LoginGuard) { g.dummyHash = func() string { return hash } }
}

func NewLoginGuard(
	accounts AccountStore,
	otps OTPStore,
	audit AuditSink,
	sender CodeSender,
	timing *auth.TimingDelay,
	config LoginGuardConfig,
	logger *slog.Logger,
	opts ...LoginGuardOption,
) *LoginGuard {
	g := &LoginGuard{
		accounts:     accounts,
		otps:         otps,
		audit:        audit,
		sender:       sender,
		timing:       timing,
		config:       config,
		logger:       logger,
		now:          time.Now,
		generateCode: generateOTPCode,
		dummyHash:    pkgauth.DummyHash,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InitiateLogin checks the password and, on success, issues and dispatches a one-time code.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (g *LoginGuard) InitiateLogin(ctx context.Context, email, password string, client ClientContext) (*LoginChallenge, error) {
	start := time.Now()
	op := metrics.OperationInitiateLogin
	email = normalizeEmail(email)

	account, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Burn the same hashing cost as a real comparison
			_ = pkgauth.ComparePassword(g.dummyHash(), password)

			g.logger.Warn("login failed: invalid credentials", slog.String("email", pkglogger.SanitizedEmail(email)))
			g.record(ctx, models.SecurityActionLoginAttempt, email, "", false, models.FailureReasonUnknownEmail, client, nil)
			g.countOutcome(op, "invalid_credentials")
			g.timing.WaitFrom(ctx, start, false)
			return nil, models.ErrInvalidCredentials
		}
		return nil, g.internalFailure(ctx, op, models.SecurityActionLoginAttempt, email, "", client, "failed to look up account", err)
	}

	now := g.now()
	if account.IsLocked {
		if !account.LockoutExpired(now, g.config.LockoutDuration) {
			g.logger.Warn("login refused: account locked", slog.String("account_id", account.ID))
			g.record(ctx, models.SecurityActionLoginAttempt, email, account.ID, false, models.FailureReasonAccountLocked, client, nil)
			g.countOutcome(op, "account_locked")
			g.timing.WaitFrom(ctx, start, false)
			return nil, models.ErrAccountLocked
		}

		if err := g.accounts.ClearLockAndFailures(ctx, account.ID); err != nil {
			return nil, g.internalFailure(ctx, op, models.SecurityActionLoginAttempt, email, account.ID, client, "failed to clear expired lockout", err)
		}
		account.IsLocked = false
		account.FailedAttempts = 0
		g.logger.Info("lockout window elapsed, account unlocked", slog.String("account_id", account.ID))
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		if !errors.Is(err, pkgauth.ErrPasswordMismatch) {
			g.logger.Error("stored password hash is unusable", slog.String("account_id", account.ID), slog.Any("error", err))
		}
		return nil, g.recordPasswordFailure(ctx, start, account, client, now)
	}

	challenge, err := g.issueChallenge(ctx, account.Email)
	if err != nil {
		return nil, g.challengeFailure(ctx, op, account, client, err)
	}

	g.record(ctx, models.SecurityActionOTPSent, email, account.ID, true, "", client, nil)
	g.countOutcome(op, "otp_sent")
	g.timing.WaitFrom(ctx, start, true)

	return challenge, nil
}

func (g *LoginGuard) recordPasswordFailure(ctx context.Context, start time.Time, account *models.Account, client ClientContext, now time.Time) error {
	op := metrics.OperationInitiateLogin

	updated, err := g.accounts.IncrementFailedAttempts(ctx, account.ID, g.config.MaxLoginAttempts, now)
	if err != nil {
		return g.internalFailure(ctx, op, models.SecurityActionLoginAttempt, account.Email, account.ID, client, "failed to record failed attempt", err)
	}

	// Only the request that crossed the threshold reports the lockout
	if updated.IsLocked && updated.FailedAttempts == g.config.MaxLoginAttempts {
		metrics.AccountLockouts.Inc()
		g.logger.Warn("account locked after repeated failures",
			slog.String("account_id", account.ID),
			slog.Int("failed_attempts", updated.FailedAttempts),
			slog.Duration("lockout_duration", g.config.LockoutDuration))
	}

	g.logger.Warn("login failed: invalid credentials", slog.String("account_id", account.ID))
	g.record(ctx, models.SecurityActionLoginAttempt, account.Email, account.ID, false, models.FailureReasonInvalidPassword, client,
		models.EventMetadata{"failed_attempts": updated.FailedAttempts, "locked": updated.IsLocked})
	g.countOutcome(op, "invalid_credentials")
	g.timing.WaitFrom(ctx, start, false)

	return models.ErrInvalidCredentials
}

// VerifyOTP consumes a matching live code and completes the login, returning the profile
// for the session binder. A wrong code is charged against the email's live challenge.
func (g *LoginGuard) VerifyOTP(ctx context.Context, email, code string, client ClientContext) (*models.AccountProfile, error) {
	op := metrics.OperationVerifyOTP
	action := models.SecurityActionOTPVerify
	email = normalizeEmail(email)

	if purged, err := g.otps.PurgeExpired(ctx); err != nil {
		g.logger.Warn("failed to purge expired challenges", slog.Any("error", err))
	} else if purged > 0 {
		metrics.OTPChallengesPurged.Add(float64(purged))
	}

	account, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			g.record(ctx, action, email, "", false, models.FailureReasonUnknownEmail, client, nil)
			g.countOutcome(op, "not_found")
			return nil, models.ErrNotFound
		}
		return nil, g.internalFailure(ctx, op, action, email, "", client, "failed to look up account", err)
	}

	challenge, err := g.otps.FindValid(ctx, email, hashOTPCode(code))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, g.internalFailure(ctx, op, action, email, account.ID, client, "failed to look up challenge", err)
		}

		metadata := models.EventMetadata{}
		attempts, incErr := g.otps.IncrementAttempts(ctx, email)
		switch {
		case incErr == nil:
			metadata["otp_attempts"] = attempts
		case !errors.Is(incErr, models.ErrNotFound):
			g.logger.Error("failed to record otp attempt", slog.String("account_id", account.ID), slog.Any("error", incErr))
		}

		g.record(ctx, action, email, account.ID, false, models.FailureReasonInvalidCode, client, metadata)
		g.countOutcome(op, "invalid_code")
		return nil, models.ErrInvalidOrExpiredOTP
	}

	if challenge.Attempts >= g.config.MaxOTPAttempts {
		g.logger.Warn("otp rejected: attempt limit reached",
			slog.String("account_id", account.ID),
			slog.Int("attempts", challenge.Attempts))
		g.record(ctx, action, email, account.ID, false, models.FailureReasonAttemptsExceeded, client,
			models.EventMetadata{"otp_attempts": challenge.Attempts})
		g.countOutcome(op, "attempts_exceeded")
		return nil, models.ErrOTPAttemptsExceeded
	}

	if err := g.otps.MarkUsed(ctx, challenge.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Consumed by a concurrent request
			g.record(ctx, action, email, account.ID, false, models.FailureReasonInvalidCode, client, nil)
			g.countOutcome(op, "invalid_code")
			return nil, models.ErrInvalidOrExpiredOTP
		}
		return nil, g.internalFailure(ctx, op, action, email, account.ID, client, "failed to consume challenge", err)
	}

	updated, err := g.accounts.TouchLastLogin(ctx, account.ID, g.now())
	if err != nil {
		return nil, g.internalFailure(ctx, op, action, email, account.ID, client, "failed to record login", err)
	}

	g.logger.Info("login completed", slog.String("account_id", account.ID))
	g.record(ctx, action, email, account.ID, true, "", client, nil)
	g.countOutcome(op, "success")

	return updated.Profile(), nil
}

// ResendOTP issues a fresh code, superseding the previous one. Password and lockout
// state are not re-checked; request-layer rate limiting bounds how often this runs.
func (g *LoginGuard) ResendOTP(ctx context.Context, email string, client ClientContext) (*LoginChallenge, error) {
	op := metrics.OperationResendOTP
	email = normalizeEmail(email)

	account, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			g.record(ctx, models.SecurityActionOTPSent, email, "", false, models.FailureReasonUnknownEmail, client, nil)
			g.countOutcome(op, "not_found")
			return nil, models.ErrNotFound
		}
		return nil, g.internalFailure(ctx, op, models.SecurityActionOTPSent, email, "", client, "failed to look up account", err)
	}

	challenge, err := g.issueChallenge(ctx, account.Email)
	if err != nil {
		return nil, g.challengeFailure(ctx, op, account, client, err)
	}

	g.record(ctx, models.SecurityActionOTPSent, email, account.ID, true, "", client, models.EventMetadata{"resend": true})
	g.countOutcome(op, "otp_sent")

	return challenge, nil
}

// issueChallenge generates, stores and dispatches a code. An undeliverable challenge is burned.
func (g *LoginGuard) issueChallenge(ctx context.Context, email string) (*LoginChallenge, error) {
	code, err := g.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := g.now().Add(g.config.OTPExpiry)
	challenge, err := g.otps.Create(ctx, email, hashOTPCode(code), expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	dispatchStart := time.Now()
	if err := g.sender.SendCode(ctx, email, code, expiresAt); err != nil {
		metrics.OTPDispatchDuration.WithLabelValues("failed").Observe(time.Since(dispatchStart).Seconds())
		g.logger.Error("failed to dispatch login code",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))

		if markErr := g.otps.MarkUsed(ctx, challenge.ID); markErr != nil && !errors.Is(markErr, models.ErrNotFound) {
			g.logger.Warn("failed to burn undelivered challenge", slog.String("challenge_id", challenge.ID), slog.Any("error", markErr))
		}
		return nil, models.ErrNotificationDeliveryFailed
	}
	metrics.OTPDispatchDuration.WithLabelValues("sent").Observe(time.Since(dispatchStart).Seconds())

	return &LoginChallenge{Email: email, ExpiresAt: expiresAt}, nil
}

func (g *LoginGuard) challengeFailure(ctx context.Context, op string, account *models.Account, client ClientContext, err error) error {
	if errors.Is(err, models.ErrNotificationDeliveryFailed) {
		g.record(ctx, models.SecurityActionOTPSent, account.Email, account.ID, false, models.FailureReasonNotificationFailed, client, nil)
		g.countOutcome(op, "delivery_failed")
		return models.ErrNotificationDeliveryFailed
	}
	return g.internalFailure(ctx, op, models.SecurityActionOTPSent, account.Email, account.ID, client, "failed to issue challenge", err)
}

// internalFailure logs the real cause, records one failed event and hides the cause from the caller
func (g *LoginGuard) internalFailure(ctx context.Context, op, action, email, accountID string, client ClientContext, msg string, err error) error {
	g.logger.Error(msg,
		slog.String("operation", op),
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.Any("error", err))
	g.record(ctx, action, email, accountID, false, models.FailureReasonInternalError, client, nil)
	g.countOutcome(op, "internal_error")
	return models.ErrInternalServer
}

func (g *LoginGuard) record(ctx context.Context, action, email, accountID string, success bool, reason string, client ClientContext, metadata models.EventMetadata) {
	event := &models.SecurityEvent{
		Action:     action,
		ActorEmail: email,
		Success:    success,
		Metadata:   metadata,
		CreatedAt:  g.now(),
	}
	if accountID != "" {
		event.ActorID = &accountID
	}
	if reason != "" {
		event.FailureReason = &reason
	}
	if client.IPAddress != "" {
		ip := client.IPAddress
		event.IPAddress = &ip
	}
	if client.UserAgent != "" {
		ua := client.UserAgent
		event.UserAgent = &ua
	}
	fingerprint := client.DeviceFingerprint()
	event.DeviceFingerprint = &fingerprint

	g.audit.Record(ctx, event)
}

func (g *LoginGuard) countOutcome(op, outcome string) {
	metrics.LoginGuardOutcomes.WithLabelValues(op, outcome).Inc()
}
