package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// DefaultSpec runs the export every day at 06:00.
const DefaultSpec = "0 6 * * *"

// Exporter is the part of agenda.Service the scheduler uses.
type Exporter interface {
	Extract(ctx context.Context, r calendar.DateRange) (*agenda.Result, error)
	ExportFile(ctx context.Context, dir, format string, res *agenda.Result) (string, error)
}

// Config configures a Scheduler.
type Config struct {
	// Spec is a standard five-field cron expression.
	Spec string

	// DaysBack and DaysAhead size the rolling window around today.
	DaysBack  int
	DaysAhead int

	OutputDir string
	Format    string

	// Location decides what "today" is and when Spec fires.
	Location *time.Location
}

// Run is the outcome of one export.
type Run struct {
	At    time.Time
	Range calendar.DateRange
	Count int
	// Path is empty when nothing was found.
	Path string
	Err  error
}

// Scheduler exports the rolling window on a cron schedule. Runs never
// overlap: a run that fires while the previous one is still busy is skipped.
type Scheduler struct {
	svc    Exporter
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	ctx  context.Context
	last *Run
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New validates cfg and registers the export job.
func New(svc Exporter, cfg Config, opts ...Option) (*Scheduler, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Format == "" {
		cfg.Format = export.FormatXLSX
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DaysBack < 0 || cfg.DaysAhead < 0 {
		return nil, errors.New("days_back and days_ahead must not be negative")
	}

	s := &Scheduler{
		svc:    svc,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithOperation(s.logger, "schedule")

	cronLogger := logging.NewCronAdapter(s.logger)
	s.cron = cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := s.cron.AddFunc(cfg.Spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Window returns the range of days_back days before and days_ahead days
// after the day of now.
func (s *Scheduler) Window(now time.Time) calendar.DateRange {
	y, m, d := now.In(s.cfg.Location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return calendar.DateRange{
		Start: today.AddDate(0, 0, -s.cfg.DaysBack),
		End:   today.AddDate(0, 0, s.cfg.DaysAhead),
	}
}

// RunOnce exports the current window immediately.
func (s *Scheduler) RunOnce(ctx context.Context) Run {
	now := s.now()
	run := Run{At: now, Range: s.Window(now)}
	start := time.Now()

	res, err := s.svc.Extract(ctx, run.Range)
	if err == nil {
		run.Count = len(res.Records)
		if !res.Empty() {
			run.Path, err = s.svc.ExportFile(ctx, s.cfg.OutputDir, s.cfg.Format, res)
		}
	}
	run.Err = err

	attrs := []any{
		logging.Range(run.Range.Start.Format("2006-01-02"), run.Range.End.Format("2006-01-02")),
		slog.Int("events", run.Count),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	}
	switch {
	case err != nil:
		s.logger.Error("scheduled export failed", append(attrs, slog.String("kind", agenda.Kind(err)), logging.Err(err))...)
	case run.Path == "":
		s.logger.Info("scheduled export found no events", attrs...)
	default:
		s.logger.Info("scheduled export written", append(attrs, slog.String("path", run.Path))...)
	}

	s.mu.Lock()
	s.last = &run
	s.mu.Unlock()
	return run
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.RunOnce(ctx)
}

// Last returns the most recent run, or nil before the first one.
func (s *Scheduler) Last() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// Next returns when the job fires next. Zero until Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running export to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("cron", s.cfg.Spec),
		slog.Time("next", s.Next()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
