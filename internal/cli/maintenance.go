package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/taskvault/internal/background"
	"github.com/BradenHooton/taskvault/internal/repositories"
	"github.com/BradenHooton/taskvault/internal/services"
	"github.com/spf13/cobra"
)

var migrateCommands = []string{"up", "down", "status"}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			return d.db.Migrate(cmd.Context(), args[0])
		},
	}
}

func newPurgeOTPsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-otps",
		Short: "Delete expired one-time code challenges and revocation records once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			cleanup := background.NewCleanupManager(d.otpStore(), repositories.NewTokenRevocationRepository(d.db), d.logger, time.Hour)
			cleanup.RunOnce(cmd.Context())

			fmt.Fprintln(cmd.OutOrStdout(), "purge complete")
			return nil
		},
	}
}

// AccountUnlocker clears lockout state for an account
type AccountUnlocker interface {
	Unlock(ctx context.Context, email string) error
}

func newUnlockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <email>",
		Short: "Clear the lockout and failed attempt count for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			audit := services.NewAuditService(repositories.NewSecurityEventRepository(d.db), d.logger)
			accounts := services.NewAccountService(repositories.NewAccountRepository(d.db), audit, d.logger)

			return runUnlock(cmd, accounts, args[0])
		},
	}
}

func runUnlock(cmd *cobra.Command, accounts AccountUnlocker, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if err := accounts.Unlock(cmd.Context(), email); err != nil {
		return fmt.Errorf("unlock %s: %w", email, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s\n", email)
	return nil
}
