package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/internal/services"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(loadErr error) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	return &app{
		stdout: &out,
		stderr: &out,
		loadConfig: func() (*config.Config, error) {
			return nil, loadErr
		},
	}, &out
}

func TestRootCommand_Subcommands(t *testing.T) {
	a, _ := testApp(nil)
	root := newRootCommand(a)

	for _, name := range []string{"serve", "migrate", "purge-otps", "unlock"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestMigrateCommand_RejectsUnknownDirection(t *testing.T) {
	a, _ := testApp(errors.New("config should not be loaded"))
	root := newRootCommand(a)
	root.SetArgs([]string{"migrate", "sideways"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestUnlockCommand_RequiresEmail(t *testing.T) {
	a, _ := testApp(errors.New("config should not be loaded"))
	root := newRootCommand(a)
	root.SetArgs([]string{"unlock"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCommands_PropagateConfigErrors(t *testing.T) {
	a, _ := testApp(errors.New("JWT_SECRET must be at least 16 characters"))
	root := newRootCommand(a)
	root.SetArgs([]string{"purge-otps"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

type fakeUnlocker struct {
	err   error
	email string
}

func (f *fakeUnlocker) Unlock(ctx context.Context, email string) error {
	f.email = email
	return f.err
}

func TestRunUnlock(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	unlocker := &fakeUnlocker{}
	require.NoError(t, runUnlock(cmd, unlocker, "  user@example.com "))
	assert.Equal(t, "user@example.com", unlocker.email)
	assert.Equal(t, "unlocked user@example.com\n", out.String())

	unlocker.err = models.ErrNotFound
	err := runUnlock(cmd, unlocker, "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Error(t, runUnlock(cmd, unlocker, "   "))
}

func TestNewCodeSender(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	sender, err := newCodeSender(context.Background(), config.NotifierConfig{Driver: config.NotifierLog}, logger)
	require.NoError(t, err)
	assert.IsType(t, &services.LogCodeSender{}, sender)

	sender, err = newCodeSender(context.Background(), config.NotifierConfig{
		Driver:      config.NotifierSMTP,
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromAddress: "no-reply@example.com",
	}, logger)
	require.NoError(t, err)
	assert.IsType(t, &services.SMTPCodeSender{}, sender)

	_, err = newCodeSender(context.Background(), config.NotifierConfig{Driver: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.True(t, newLogger(&buf, "nonsense").Enabled(context.Background(), slog.LevelInfo))
}
