package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/config"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/google"
	"github.com/iavc/agenda-extractor/internal/instrumentation"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg       *config.Config
	telemetry *instrumentation.Provider
	auth      *google.Authenticator
	service   *agenda.Service
	location  *time.Location
}

// newApp wires configuration, telemetry, credentials and the agenda service.
// consentOut receives the interactive consent instructions.
func newApp(ctx context.Context, cfg *config.Config, consentOut io.Writer) (*app, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	telemetry, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := telemetry.Metrics()

	provider, err := newCredentialProvider(cfg.Auth, consentOut)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}
	store, err := newTokenStore(cfg.Auth)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}
	auth := google.NewAuthenticator(provider, store,
		google.WithMetrics(metrics),
		google.WithLogger(slog.Default()))

	exportOpts, err := exportOptions(cfg)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}

	svc := agenda.NewService(auth, agenda.Config{
		CalendarID: cfg.Calendar.ID,
		PageSize:   cfg.Calendar.PageSize,
		Exclusions: cfg.Calendar.Exclude,
		Export:     exportOpts,
	}, agenda.WithMetrics(metrics), agenda.WithLogger(slog.Default()))

	location := exportOpts.Location
	if location == nil {
		location = time.Local
	}

	return &app{
		cfg:       cfg,
		telemetry: telemetry,
		auth:      auth,
		service:   svc,
		location:  location,
	}, nil
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	return a.telemetry.Shutdown(ctx)
}

// today is the current date in the configured zone.
func (a *app) today() time.Time {
	return time.Now().In(a.location)
}

func newCredentialProvider(cfg config.AuthConfig, out io.Writer) (google.CredentialProvider, error) {
	switch cfg.Strategy {
	case config.StrategyServiceAccount:
		if cfg.ServiceAccountFile == "" {
			return nil, errors.New("auth.service_account_file (or GOOGLE_APPLICATION_CREDENTIALS) is required for the service-account strategy")
		}
		return google.NewServiceAccountProviderFromFile(cfg.ServiceAccountFile, cfg.Subject, google.DefaultScopes)

	case config.StrategyLocalServer, config.StrategyConsole:
		oauthConfig, err := google.ClientConfig(cfg.ClientSecretFile, cfg.ClientID, cfg.ClientSecret, google.DefaultScopes)
		if err != nil {
			return nil, err
		}
		opts := google.FlowOptions{
			ForceConsent: cfg.ForceConsent,
			Timeout:      cfg.Timeout,
			Out:          out,
		}
		if cfg.Strategy == config.StrategyConsole {
			return google.NewConsoleProvider(oauthConfig, opts), nil
		}
		return google.NewLocalServerProvider(oauthConfig, opts), nil

	default:
		return nil, fmt.Errorf("unsupported auth strategy %q", cfg.Strategy)
	}
}

func newTokenStore(cfg config.AuthConfig) (google.TokenStore, error) {
	switch cfg.TokenStore {
	case config.TokenStoreFile:
		return google.NewFileTokenStore(cfg.TokenFile), nil
	case config.TokenStoreKeyring:
		return google.OpenKeyringTokenStore(cfg.KeyringService, filepath.Dir(cfg.TokenFile))
	default:
		return nil, fmt.Errorf("unsupported token store %q", cfg.TokenStore)
	}
}

func exportOptions(cfg *config.Config) (export.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return export.Options{}, fmt.Errorf("invalid export.timezone %q: %w", cfg.Export.Timezone, err)
	}
	return export.Options{
		TimeFormat: export.TimeFormat(cfg.Export.TimeFormat),
		Location:   loc,
	}, nil
}

// resolveRange parses the --from and --to flags. An empty flag means today.
func resolveRange(from, to string, today time.Time) (calendar.DateRange, error) {
	start, end := today, today
	var err error
	if from != "" {
		if start, err = calendar.ParseDate(from); err != nil {
			return calendar.DateRange{}, err
		}
	}
	if to != "" {
		if end, err = calendar.ParseDate(to); err != nil {
			return calendar.DateRange{}, err
		}
	}
	return calendar.NewDateRange(start, end)
}

// applyExclude overrides the configured exclusion list from a --exclude flag.
func applyExclude(cfg *config.Config, flag string, changed bool) {
	if changed {
		cfg.Calendar.Exclude = parseCommaSeparatedList(flag)
		if cfg.Calendar.Exclude == nil {
			cfg.Calendar.Exclude = []string{}
		}
	}
}

// parseCommaSeparatedList splits a comma-separated string into trimmed,
// non-empty values.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// userError is what a command prints for a failed extraction; details go
// to the log.
func userError(err error) error {
	slog.Error("extraction failed", slog.String("kind", agenda.Kind(err)), slog.String("error", err.Error()))
	return errors.New(agenda.UserMessage(err))
}
