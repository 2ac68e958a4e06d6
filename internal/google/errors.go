package google

import (
	"fmt"
	"strings"
)

// WrapOAuthError appends a human-readable hint to known Google OAuth error codes.
// The original error is preserved via %w for unwrapping.
func WrapOAuthError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unauthorized_client"):
		return fmt.Errorf("%w (hint: the client is not allowed this grant, check the OAuth client type)", err)
	case strings.Contains(msg, "invalid_grant"):
		return fmt.Errorf("%w (hint: token revoked or expired, run 'agenda-extractor auth --force')", err)
	case strings.Contains(msg, "invalid_client"):
		return fmt.Errorf("%w (hint: client_id/secret invalid, check auth.client_secret_file)", err)
	}
	return err
}

// authError wraps err with ErrAuthFailure and a short description.
func authError(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrAuthFailure, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrAuthFailure, msg, err)
}
