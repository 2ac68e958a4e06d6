package agenda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/google"
)

type fakeAuth struct {
	err   error
	calls int
}

func (a *fakeAuth) Client(context.Context) (*http.Client, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return http.DefaultClient, nil
}

type pageLister struct {
	pages    [][]*gcal.Event
	err      error
	requests int
}

func (l *pageLister) ListPage(_ context.Context, _ calendar.PageRequest) (*gcal.Events, error) {
	l.requests++
	if l.err != nil {
		return nil, l.err
	}
	events := &gcal.Events{}
	if l.requests <= len(l.pages) {
		events.Items = l.pages[l.requests-1]
	}
	if l.requests < len(l.pages) {
		events.NextPageToken = fmt.Sprintf("p%d", l.requests+1)
	}
	return events, nil
}

func newTestService(auth Authenticator, lister calendar.Lister, cfg Config) *Service {
	return NewService(auth, cfg, WithListerFactory(func(context.Context, *http.Client) (calendar.Lister, error) {
		return lister, nil
	}))
}

func event(title, start string) *gcal.Event {
	return &gcal.Event{
		Summary: title,
		Start:   &gcal.EventDateTime{DateTime: start},
		End:     &gcal.EventDateTime{DateTime: start},
	}
}

func mustRange(t *testing.T, start, end string) calendar.DateRange {
	t.Helper()
	r, err := calendar.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestExtract_OnlyPlaceholderIsEmptyNotice(t *testing.T) {
	lister := &pageLister{pages: [][]*gcal.Event{{event("Dados do hospital", "2025-03-01T08:00:00-03:00")}}}
	svc := newTestService(&fakeAuth{}, lister, Config{CalendarID: "cal"})

	res, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-01"))

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, MessageEmpty, res.Message())
}

func TestExtract_Found(t *testing.T) {
	lister := &pageLister{pages: [][]*gcal.Event{
		{event("A", "2025-03-01T08:00:00Z"), event("Modelo agendamento", "2025-03-01T09:00:00Z")},
		{event("B", "2025-03-02T08:00:00Z")},
	}}
	svc := newTestService(&fakeAuth{}, lister, Config{CalendarID: "cal"})

	res, err := svc.Extract(context.Background(), mustRange(t, "01-03-2025", "31-03-2025"))

	require.NoError(t, err)
	assert.False(t, res.Empty())
	assert.Len(t, res.Records, 2)
	assert.Equal(t, "2 events found.", res.Message())
	assert.Equal(t, 2, lister.requests)
}

func TestExtract_ConfiguredExclusions(t *testing.T) {
	lister := &pageLister{pages: [][]*gcal.Event{{event("Dados do hospital", "2025-03-01T08:00:00Z")}}}
	svc := newTestService(&fakeAuth{}, lister, Config{CalendarID: "cal", Exclusions: []string{}})

	res, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-01"))

	require.NoError(t, err)
	assert.Len(t, res.Records, 1, "an explicitly empty list disables filtering")
}

func TestExtract_InvalidRangeSkipsAuth(t *testing.T) {
	auth := &fakeAuth{}
	svc := newTestService(auth, &pageLister{}, Config{CalendarID: "cal"})
	r := calendar.DateRange{
		Start: mustRange(t, "2025-03-31", "2025-03-31").Start,
		End:   mustRange(t, "2025-03-01", "2025-03-01").End,
	}

	_, err := svc.Extract(context.Background(), r)

	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
	assert.Equal(t, 0, auth.calls)
}

func TestExtract_AuthFailure(t *testing.T) {
	lister := &pageLister{}
	auth := &fakeAuth{err: fmt.Errorf("%w: refresh rejected", google.ErrAuthFailure)}
	svc := newTestService(auth, lister, Config{CalendarID: "cal"})

	_, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-31"))

	require.Error(t, err)
	assert.Equal(t, KindAuth, Kind(err))
	assert.Equal(t, MessageFailure, UserMessage(err))
	assert.Equal(t, 0, lister.requests)
}

func TestExtract_FetchFailure(t *testing.T) {
	lister := &pageLister{err: errors.New("googleapi: Error 500")}
	svc := newTestService(&fakeAuth{}, lister, Config{CalendarID: "cal"})

	_, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-31"))

	require.Error(t, err)
	assert.Equal(t, KindFetch, Kind(err))
	assert.Equal(t, MessageFailure, UserMessage(err), "auth and fetch failures look the same to users")
}

func TestExtract_ListerFactoryFailure(t *testing.T) {
	svc := NewService(&fakeAuth{}, Config{CalendarID: "cal"}, WithListerFactory(
		func(context.Context, *http.Client) (calendar.Lister, error) {
			return nil, errors.New("bad endpoint")
		}))

	_, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-31"))
	assert.Equal(t, KindFetch, Kind(err))
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindRange, Kind(fmt.Errorf("wrapped: %w", calendar.ErrInvalidRange)))
	assert.Equal(t, KindAuth, Kind(fmt.Errorf("wrapped: %w", google.ErrAuthFailure)))
	assert.Equal(t, KindFetch, Kind(fmt.Errorf("wrapped: %w", calendar.ErrFetchFailure)))
	assert.Equal(t, KindUnknown, Kind(errors.New("other")))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(calendar.ErrInvalidRange), "Invalid date range")
	assert.Equal(t, MessageFailure, UserMessage(errors.New("boom")))
}

func TestResult_NilIsEmpty(t *testing.T) {
	var res *Result
	assert.True(t, res.Empty())
}

func TestExport(t *testing.T) {
	lister := &pageLister{pages: [][]*gcal.Event{{event("A", "2025-03-01T08:00:00Z")}}}
	svc := newTestService(&fakeAuth{}, lister, Config{CalendarID: "cal"})
	res, err := svc.Extract(context.Background(), mustRange(t, "2025-03-01", "2025-03-01"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf, export.FormatXLSX, res))
	rows, err := export.ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "01/03/2025 08:00", rows[0].Start)

	path, err := svc.ExportFile(context.Background(), t.TempDir(), export.FormatICS, res)
	require.NoError(t, err)
	assert.Equal(t, "agenda_01-03-2025_a_01-03-2025.ics", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:A")

	err = svc.Export(context.Background(), &buf, "pdf", res)
	assert.Error(t, err)
}
