package cli

import (
	"io"
	"os"

	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/spf13/cobra"
)

type app struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (*config.Config, error)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
	})
}

func newRootCommand(a *app) *cobra.Command {
	serve := newServeCmd(a)

	cmd := &cobra.Command{
		Use:           "taskvault",
		Short:         "Task API with password plus one-time code login",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare invocation runs the server
		RunE: serve.RunE,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.AddCommand(
		serve,
		newMigrateCmd(a),
		newPurgeOTPsCmd(a),
		newUnlockCmd(a),
	)

	return cmd
}
