package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/google"
)

func newAuthCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize calendar access and store the credential",
		Long: `Run the credential flow ahead of time so later exports do not need a
person at the keyboard.

Strategies (auth.strategy):
  local-server     opens the consent page in a browser and receives the
                   redirect on a loopback port (default)
  console          prints the consent URL; paste the redirected URL back
  service-account  uses a service account key, optionally impersonating
                   auth.subject; nothing is stored interactively

A stored credential that is still valid or can be refreshed is reused.
Use --force to run the consent flow again, for example after the refresh
token was revoked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg := *appConfig
			if force {
				cfg.Auth.ForceConsent = true
			}

			a, err := newApp(ctx, &cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			var cred *google.Credential
			if force {
				cred, err = a.auth.Issue(ctx)
			} else {
				cred, err = a.auth.Obtain(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Authorized with the %s strategy.\n", a.auth.Provider().Name())
			if !cred.Expiry.IsZero() {
				fmt.Fprintf(out, "Access token valid until %s.\n", cred.Expiry.Local().Format(time.RFC1123))
			}
			if cred.Refreshable() {
				fmt.Fprintln(out, "A refresh token is stored; later runs refresh it without asking again.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Run the consent flow even when a usable credential is stored")
	return cmd
}
