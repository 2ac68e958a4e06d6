package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/iavc/agenda-extractor/internal/instrumentation"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// Fetcher retrieves and normalizes the events of one calendar.
type Fetcher struct {
	lister     Lister
	calendarID string
	pageSize   int64
	exclusions ExclusionSet
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageSize sets the page size, clamped to 1..MaxPageSize.
func WithPageSize(n int) FetcherOption {
	return func(f *Fetcher) {
		switch {
		case n < 1:
			f.pageSize = 1
		case n > MaxPageSize:
			f.pageSize = MaxPageSize
		default:
			f.pageSize = int64(n)
		}
	}
}

// WithExclusions replaces the excluded titles.
func WithExclusions(titles []string) FetcherOption {
	return func(f *Fetcher) { f.exclusions = NewExclusionSet(titles...) }
}

// WithMetrics records page requests and event counts.
func WithMetrics(m *instrumentation.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// DefaultExclusions are the placeholder entries kept in the calendar as
// templates.
var DefaultExclusions = []string{"Modelo agendamento", "Dados do hospital"}

// NewFetcher creates a Fetcher for calendarID.
func NewFetcher(lister Lister, calendarID string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		lister:     lister,
		calendarID: calendarID,
		pageSize:   MaxPageSize,
		exclusions: NewExclusionSet(DefaultExclusions...),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CalendarID returns the calendar being fetched.
func (f *Fetcher) CalendarID() string {
	return f.calendarID
}

// Fetch returns every non-excluded event in r, in provider order across
// pages. An empty calendar yields an empty, non-nil slice.
func (f *Fetcher) Fetch(ctx context.Context, r DateRange) ([]EventRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithCalendar(logging.WithOperation(f.logger, "calendar.fetch"), f.calendarID)
	req := PageRequest{
		CalendarID: f.calendarID,
		TimeMin:    r.TimeMin(),
		TimeMax:    r.TimeMax(),
		MaxResults: f.pageSize,
	}

	records := make([]EventRecord, 0)
	var pages, items, excluded int
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
		}

		pages++
		events, err := f.listPage(ctx, req, pages)
		if err != nil {
			logger.Error("page request failed", slog.Int("page", pages), logging.Err(err))
			return nil, fmt.Errorf("%w: page %d: %w", ErrFetchFailure, pages, err)
		}

		for _, item := range events.Items {
			if item == nil {
				continue
			}
			items++
			title := strings.TrimSpace(item.Summary)
			if f.exclusions.Contains(title) {
				excluded++
				continue
			}
			records = append(records, toEventRecord(item, title))
		}

		if events.NextPageToken == "" {
			break
		}
		req.PageToken = events.NextPageToken
	}

	f.metrics.RecordCalendarEvents(ctx, len(records), excluded)
	logger.Info("fetched events",
		logging.Range(r.Start.Format(dateLayout), r.End.Format(dateLayout)),
		slog.Int("pages", pages),
		slog.Int("items", items),
		slog.Int("excluded", excluded),
		slog.Int("records", len(records)),
	)
	return records, nil
}

func (f *Fetcher) listPage(ctx context.Context, req PageRequest, page int) (*calendar.Events, error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, "events.list", f.calendarID,
		attribute.Int(instrumentation.SpanAttrPage, page))
	defer span.End()

	start := time.Now()
	events, err := f.lister.ListPage(ctx, req)
	if err == nil && events == nil {
		err = fmt.Errorf("empty response for page %d", page)
	}
	if err != nil {
		f.metrics.RecordCalendarPage(ctx, f.calendarID, instrumentation.StatusError, time.Since(start))
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	f.metrics.RecordCalendarPage(ctx, f.calendarID, instrumentation.StatusSuccess, time.Since(start))
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrItems, len(events.Items)))
	instrumentation.SetSpanSuccess(span)
	return events, nil
}

func toEventRecord(item *calendar.Event, title string) EventRecord {
	return EventRecord{
		Title:       title,
		Start:       toEventTime(item.Start),
		End:         toEventTime(item.End),
		Location:    item.Location,
		Description: item.Description,
	}
}

// toEventTime prefers dateTime over date and never invents a time of day
// for all-day values.
func toEventTime(edt *calendar.EventDateTime) EventTime {
	if edt == nil {
		return EventTime{}
	}
	if edt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, edt.DateTime)
		return EventTime{Raw: edt.DateTime, Time: t}
	}
	if edt.Date != "" {
		t, _ := time.Parse(dateLayout, edt.Date)
		return EventTime{Raw: edt.Date, Time: t, AllDay: true}
	}
	return EventTime{}
}
