package google

import (
	"context"
	"errors"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// Strategy names.
const (
	StrategyLocalServer    = "local-server"
	StrategyConsole        = "console"
	StrategyServiceAccount = "service-account"
)

// CredentialProvider issues new tokens for one strategy and builds token
// sources that refresh them.
type CredentialProvider interface {
	// Name returns the strategy name used in logs and metrics.
	Name() string

	// Interactive reports whether Issue needs a person at the keyboard.
	Interactive() bool

	// Scopes returns the scopes the provider requests.
	Scopes() []string

	// Issue runs the full credential flow.
	Issue(ctx context.Context) (*oauth2.Token, error)

	// TokenSource returns a source that starts from tok and refreshes it
	// when it expires.
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// ClientConfig builds the OAuth client configuration used by the
// user-consent strategies. A client secret file in Google's "installed" or
// "web" format wins over an explicit client ID and secret.
func ClientConfig(secretFile, clientID, clientSecret string, scopes []string) (*oauth2.Config, error) {
	if secretFile != "" {
		data, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, authError("failed to read client secret file", err)
		}
		cfg, err := google.ConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, authError("malformed client secret file", err)
		}
		return cfg, nil
	}

	if clientID == "" {
		return nil, authError("no OAuth client configured; set auth.client_secret_file or GOOGLE_CLIENT_ID", nil)
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}, nil
}

// consentFunc runs the user-facing half of an authorization code flow and
// returns the exchanged token.
type consentFunc func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

// userConsentProvider issues tokens through an authorization code flow
// and refreshes them with the client's refresh token.
type userConsentProvider struct {
	name    string
	config  *oauth2.Config
	consent consentFunc
}

func (p *userConsentProvider) Name() string      { return p.name }
func (p *userConsentProvider) Interactive() bool { return true }
func (p *userConsentProvider) Scopes() []string  { return p.config.Scopes }

func (p *userConsentProvider) Issue(ctx context.Context) (*oauth2.Token, error) {
	tok, err := p.consent(ctx, p.config)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("no refresh token received; run 'agenda-extractor auth --force' to request consent again")
	}
	return tok, nil
}

func (p *userConsentProvider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return p.config.TokenSource(ctx, tok)
}

// serviceAccountProvider issues tokens with a signed JWT assertion.
// There is no refresh token; an expired token is simply issued again.
type serviceAccountProvider struct {
	config *jwt.Config
}

// NewServiceAccountProvider parses a service-account key. subject, when set,
// is the user impersonated through domain-wide delegation.
func NewServiceAccountProvider(keyJSON []byte, subject string, scopes []string) (CredentialProvider, error) {
	cfg, err := google.JWTConfigFromJSON(keyJSON, scopes...)
	if err != nil {
		return nil, authError("malformed service account key", err)
	}
	cfg.Subject = subject
	return &serviceAccountProvider{config: cfg}, nil
}

// NewServiceAccountProviderFromFile reads a service-account key file.
func NewServiceAccountProviderFromFile(path, subject string, scopes []string) (CredentialProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, authError("failed to read service account key", err)
	}
	return NewServiceAccountProvider(data, subject, scopes)
}

func (p *serviceAccountProvider) Name() string      { return StrategyServiceAccount }
func (p *serviceAccountProvider) Interactive() bool { return false }
func (p *serviceAccountProvider) Scopes() []string  { return p.config.Scopes }

func (p *serviceAccountProvider) Issue(ctx context.Context) (*oauth2.Token, error) {
	return p.config.TokenSource(ctx).Token()
}

func (p *serviceAccountProvider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(tok, p.config.TokenSource(ctx))
}
