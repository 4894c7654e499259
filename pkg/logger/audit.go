package logger

import (
	"context"
	"log/slog"
	"time"
)

// SecurityEvent is the log-side view of an authentication event
type SecurityEvent struct {
	Action        string
	ActorEmail    string
	ActorID       string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

// attrs renders the event with the email masked and empty fields omitted
func (e SecurityEvent) attrs(at time.Time) []slog.Attr {
	out := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("action", e.Action),
		slog.Bool("success", e.Success),
		slog.String("email", SanitizedEmail(e.ActorEmail)),
		slog.String("timestamp", at.UTC().Format(time.RFC3339)),
	}
	for _, opt := range [...]struct{ key, val string }{
		{"account_id", e.ActorID},
		{"ip_address", e.IPAddress},
		{"user_agent", e.UserAgent},
		{"failure_reason", e.FailureReason},
	} {
		if opt.val != "" {
			out = append(out, slog.String(opt.key, opt.val))
		}
	}
	return out
}

// AuditLogger mirrors security events into the structured log
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

// LogSecurityEvent logs successes at Info and failures at Warn
func (al *AuditLogger) LogSecurityEvent(ctx context.Context, event SecurityEvent) {
	level := slog.LevelWarn
	if event.Success {
		level = slog.LevelInfo
	}
	al.logger.LogAttrs(ctx, level, "security event", event.attrs(al.now())...)
}
