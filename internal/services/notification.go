package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gopkg.in/gomail.v2"

	pkglogger "github.com/BradenHooton/taskvault/pkg/logger"
)

const loginCodeSubject = "Your TaskVault login code"

func loginCodeBodies(code string, expiresAt time.Time) (html, text string) {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	html = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 20px; background-color: #f8f9fa; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <p>Use this code to finish signing in to TaskVault:</p>
        <div class="code">%s</div>
        <p>The code expires in %d minutes and can be used once.</p>
        <p><strong>Didn't try to sign in?</strong><br>
        Someone may know your password. Change it and ignore this email.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, code, minutes)

	text = fmt.Sprintf(`Use this code to finish signing in to TaskVault:

%s

The code expires in %d minutes and can be used once.

Didn't try to sign in? Someone may know your password. Change it and ignore this email.
`, code, minutes)

	return html, text
}

// SESCodeSender sends login codes using AWS SES
type SESCodeSender struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewSESCodeSender(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESCodeSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESCodeSender{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (s *SESCodeSender) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	htmlBody, textBody := loginCodeBodies(code, expiresAt)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(loginCodeSubject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send login code via SES: %w", err)
	}

	s.logger.Info("login code sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// mailDialer is the part of gomail.Dialer used for delivery
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPCodeSender sends login codes over SMTP
type SMTPCodeSender struct {
	dialer      mailDialer
	fromAddress string
	logger      *slog.Logger
}

func NewSMTPCodeSender(host string, port int, username, password, fromAddress string, logger *slog.Logger) *SMTPCodeSender {
	return &SMTPCodeSender{
		dialer:      gomail.NewDialer(host, port, username, password),
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (s *SMTPCodeSender) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, textBody := loginCodeBodies(code, expiresAt)

	m := gomail.NewMessage()
	m.SetHeader("From", s.fromAddress)
	m.SetHeader("To", email)
	m.SetHeader("Subject", loginCodeSubject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send login code via SMTP: %w", err)
	}

	s.logger.Info("login code sent", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// LogCodeSender writes codes to the log. For local development only.
type LogCodeSender struct {
	logger *slog.Logger
}

func NewLogCodeSender(logger *slog.Logger) *LogCodeSender {
	return &LogCodeSender{logger: logger}
}

func (s *LogCodeSender) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.logger.WarnContext(ctx, "login code (log notifier, do not use in production)",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("code", code),
		slog.Time("expires_at", expiresAt))
	return nil
}
