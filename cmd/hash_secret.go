package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iavc/agenda-extractor/internal/access"
)

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret",
		Short: "Print a bcrypt hash for access.secret_hash",
		Long: `Read an access code from the terminal (or one line of stdin) and print
its bcrypt hash. Put the hash in access.secret_hash and set access.mode to
"bcrypt" so the web form asks for the code without the config holding it.`,
		Args: cobra.NoArgs,
		// Hashing needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd)
			if err != nil {
				return err
			}
			hash, err := access.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readSecret(cmd *cobra.Command) (string, error) {
	var secret string
	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Access code: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read access code: %w", err)
		}
		secret = string(b)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read access code: %w", err)
		}
		secret = line
	}

	secret = strings.TrimRight(secret, "\r\n")
	if secret == "" {
		return "", errors.New("access code must not be empty")
	}
	return secret, nil
}
