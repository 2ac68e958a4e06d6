package agenda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"

	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/google"
	"github.com/iavc/agenda-extractor/internal/instrumentation"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// Failure kinds reported by Kind.
const (
	KindAuth    = "auth"
	KindFetch   = "fetch"
	KindRange   = "range"
	KindUnknown = "unknown"
)

// Messages shown to people.
const (
	MessageFound   = "%d events found."
	MessageEmpty   = "No events found."
	MessageFailure = "Could not retrieve the agenda. Please try again later."
)

// Authenticator yields an authorized HTTP client.
type Authenticator interface {
	Client(ctx context.Context) (*http.Client, error)
}

// ListerFactory builds a calendar.Lister from an authorized client.
type ListerFactory func(ctx context.Context, client *http.Client) (calendar.Lister, error)

// ServiceListerFactory builds the real Calendar API lister.
func ServiceListerFactory(ctx context.Context, client *http.Client) (calendar.Lister, error) {
	return calendar.NewServiceLister(ctx, option.WithHTTPClient(client))
}

// Config configures a Service.
type Config struct {
	CalendarID string
	PageSize   int
	Exclusions []string
	Export     export.Options
}

// Result is the outcome of one extraction.
type Result struct {
	Range   calendar.DateRange
	Records []calendar.EventRecord
}

// Empty reports whether nothing was found.
func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// Message is the notice shown for a successful extraction.
func (r *Result) Message() string {
	if r.Empty() {
		return MessageEmpty
	}
	return fmt.Sprintf(MessageFound, len(r.Records))
}

// Service runs extractions.
type Service struct {
	auth    Authenticator
	lister  ListerFactory
	config  Config
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithListerFactory replaces the Calendar API lister, mainly for tests.
func WithListerFactory(f ListerFactory) Option {
	return func(s *Service) { s.lister = f }
}

// WithMetrics records fetch and export metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(auth Authenticator, cfg Config, opts ...Option) *Service {
	s := &Service{
		auth:   auth,
		lister: ServiceListerFactory,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportOptions returns the configured rendering options.
func (s *Service) ExportOptions() export.Options {
	return s.config.Export
}

// Extract validates r, authenticates, and fetches the events in r.
func (s *Service) Extract(ctx context.Context, r calendar.DateRange) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	client, err := s.auth.Client(ctx)
	if err != nil {
		return nil, err
	}

	lister, err := s.lister(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", calendar.ErrFetchFailure, err)
	}

	opts := []calendar.FetcherOption{
		calendar.WithMetrics(s.metrics),
		calendar.WithLogger(s.logger),
	}
	if s.config.PageSize > 0 {
		opts = append(opts, calendar.WithPageSize(s.config.PageSize))
	}
	if s.config.Exclusions != nil {
		opts = append(opts, calendar.WithExclusions(s.config.Exclusions))
	}

	records, err := calendar.NewFetcher(lister, s.config.CalendarID, opts...).Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Result{Range: r, Records: records}, nil
}

// Export writes res in format to w and records the outcome.
func (s *Service) Export(ctx context.Context, w io.Writer, format string, res *Result) error {
	err := export.Write(w, format, res.Records, s.config.Export)
	s.recordExport(ctx, format, err)
	return err
}

// ExportFile writes res in format into dir and returns the file path.
func (s *Service) ExportFile(ctx context.Context, dir, format string, res *Result) (string, error) {
	path, err := export.WriteFile(dir, res.Range, format, res.Records, s.config.Export)
	s.recordExport(ctx, format, err)
	return path, err
}

// ExportFileAt writes res in format to path.
func (s *Service) ExportFileAt(ctx context.Context, path, format string, res *Result) error {
	err := export.WriteFileAt(path, format, res.Records, s.config.Export)
	s.recordExport(ctx, format, err)
	return err
}

func (s *Service) recordExport(ctx context.Context, format string, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		s.logger.Error("export failed", slog.String("format", format), logging.Err(err))
	}
	s.metrics.RecordExport(ctx, format, status)
}

// Kind classifies err as auth, fetch, range or unknown.
func Kind(err error) string {
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		return KindRange
	case errors.Is(err, google.ErrAuthFailure):
		return KindAuth
	case errors.Is(err, calendar.ErrFetchFailure):
		return KindFetch
	default:
		return KindUnknown
	}
}

// UserMessage renders err for people. Authentication and fetch failures
// share one generic message; only an invalid range is explained.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if Kind(err) == KindRange {
		return "Invalid date range. Use DD-MM-YYYY dates with the end on or after the start."
	}
	return MessageFailure
}
