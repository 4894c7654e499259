package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

func TestSMTPCodeSender_SendCode(t *testing.T) {
	dialer := &fakeDialer{}
	sender := &SMTPCodeSender{dialer: dialer, fromAddress: "no-reply@taskvault.dev", logger: slog.Default()}

	err := sender.SendCode(context.Background(), "alice@example.com", "482913", time.Now().Add(10*time.Minute))

	require.NoError(t, err)
	require.Len(t, dialer.messages, 1)
	m := dialer.messages[0]
	assert.Equal(t, []string{"alice@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{loginCodeSubject}, m.GetHeader("Subject"))

	var body bytes.Buffer
	_, err = m.WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "482913")
}

func TestSMTPCodeSender_SendCode_Error(t *testing.T) {
	sender := &SMTPCodeSender{dialer: &fakeDialer{err: errors.New("dial tcp: refused")}, logger: slog.Default()}

	err := sender.SendCode(context.Background(), "alice@example.com", "482913", time.Now().Add(time.Minute))

	assert.ErrorContains(t, err, "refused")
}

func TestSMTPCodeSender_SendCode_CancelledContext(t *testing.T) {
	dialer := &fakeDialer{}
	sender := &SMTPCodeSender{dialer: dialer, logger: slog.Default()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sender.SendCode(ctx, "alice@example.com", "482913", time.Now()), context.Canceled)
	assert.Empty(t, dialer.messages)
}

func TestLoginCodeBodies(t *testing.T) {
	html, text := loginCodeBodies("123456", time.Now().Add(10*time.Minute))

	assert.Contains(t, html, "123456")
	assert.Contains(t, text, "123456")
	assert.Contains(t, text, "10 minutes")
}

func TestLogCodeSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogCodeSender(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sender.SendCode(context.Background(), "alice@example.com", "123456", time.Now()))
	assert.True(t, strings.Contains(buf.String(), "code=123456"))
}
