package google

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/iavc/agenda-extractor/internal/instrumentation"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// Authenticator produces a usable Credential from a TokenStore and a
// CredentialProvider.
type Authenticator struct {
	provider CredentialProvider
	store    TokenStore
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithMetrics records issuance and refresh attempts.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(provider CredentialProvider, store TokenStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		provider: provider,
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logging.Strategy(provider.Name()))
	return a
}

// Provider returns the configured credential provider.
func (a *Authenticator) Provider() CredentialProvider {
	return a.provider
}

// Obtain returns a valid credential. A stored credential is used as is
// while valid, refreshed once when expired, and otherwise a new one is
// issued and persisted.
func (a *Authenticator) Obtain(ctx context.Context) (*Credential, error) {
	ctx, span := instrumentation.StartSpan(ctx, "google.auth.obtain",
		attribute.String(instrumentation.SpanAttrStrategy, a.provider.Name()))
	defer span.End()

	cred, err := a.obtain(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return cred, nil
}

func (a *Authenticator) obtain(ctx context.Context) (*Credential, error) {
	stored, err := a.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoCredential):
		stored = nil
	case err != nil:
		return nil, authError("failed to load stored credential", err)
	}

	if stored.Valid(a.now()) {
		a.logger.Debug("using stored credential", slog.Time("expiry", stored.Expiry))
		return stored, nil
	}

	if stored.Refreshable() {
		refreshed, err := a.refresh(ctx, stored)
		if err == nil {
			a.persist(ctx, refreshed)
			return refreshed, nil
		}
		if a.provider.Interactive() {
			return nil, authError("failed to refresh stored credential", err)
		}
		a.logger.Warn("refresh failed, issuing a new credential", logging.Err(err))
	}

	return a.Issue(ctx)
}

// Issue runs the provider's full credential flow and persists the result,
// ignoring any stored credential.
func (a *Authenticator) Issue(ctx context.Context) (*Credential, error) {
	tok, err := a.provider.Issue(ctx)
	if err != nil {
		a.metrics.RecordOAuthAuth(ctx, a.provider.Name(), instrumentation.OAuthResultFailure)
		return nil, authError("failed to issue credential", WrapOAuthError(err))
	}
	a.metrics.RecordOAuthAuth(ctx, a.provider.Name(), instrumentation.OAuthResultSuccess)

	cred := newCredential(tok, a.provider.Name(), a.provider.Scopes())
	a.logger.Info("issued new credential", slog.String("access_token", logging.SanitizeToken(cred.AccessToken)))
	a.persist(ctx, cred)
	return cred, nil
}

func (a *Authenticator) refresh(ctx context.Context, stored *Credential) (*Credential, error) {
	tok, err := a.provider.TokenSource(ctx, stored.Token()).Token()
	if err != nil {
		a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, WrapOAuthError(err)
	}
	a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	cred := newCredential(tok, a.provider.Name(), stored.Scopes)
	if cred.RefreshToken == "" {
		cred.RefreshToken = stored.RefreshToken
	}
	a.logger.Debug("refreshed stored credential", slog.Time("expiry", cred.Expiry))
	return cred, nil
}

// persist saves cred. A failed save leaves the in-memory credential usable
// for this run, so it is logged rather than returned.
func (a *Authenticator) persist(ctx context.Context, cred *Credential) {
	if err := a.store.Save(ctx, cred); err != nil {
		a.logger.Warn("failed to persist credential", logging.Err(err))
	}
}

// Client returns an HTTP client authorized with the obtained credential.
// Tokens refreshed during the client's lifetime are persisted as well.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	cred, err := a.Obtain(ctx)
	if err != nil {
		return nil, err
	}
	tok := cred.Token()
	src := &persistingTokenSource{
		base:   a.provider.TokenSource(ctx, tok),
		last:   tok.AccessToken,
		scopes: cred.Scopes,
		auth:   a,
		ctx:    ctx,
	}
	return oauth2.NewClient(ctx, src), nil
}

// persistingTokenSource saves every token that differs from the last one seen.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	auth   *Authenticator
	ctx    context.Context
	scopes []string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, authError("failed to refresh credential", WrapOAuthError(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		s.auth.persist(s.ctx, newCredential(tok, s.auth.provider.Name(), s.scopes))
	}
	return tok, nil
}
