// Package google obtains OAuth2 credentials for the Google Calendar API.
//
// An Authenticator combines a CredentialProvider, which knows how to issue
// and refresh tokens for one strategy (browser consent on a loopback port,
// console copy/paste, or a service-account key), with a TokenStore that
// persists the credential between runs (a JSON file or the OS keyring).
//
// Obtain follows a fixed order: use the stored credential while it is valid,
// refresh it exactly once when it has expired, and fall back to issuing a new
// one. Interactive providers never fall back after a failed refresh so that a
// server process does not open a browser on its own.
//
// All failures wrap ErrAuthFailure.
package google
