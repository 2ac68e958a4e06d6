package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
)

type fakeExporter struct {
	mu      sync.Mutex
	records []calendar.EventRecord
	err     error
	ranges  []calendar.DateRange
	dirs    []string
}

func (f *fakeExporter) Extract(_ context.Context, r calendar.DateRange) (*agenda.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, r)
	if f.err != nil {
		return nil, f.err
	}
	return &agenda.Result{Range: r, Records: f.records}, nil
}

func (f *fakeExporter) ExportFile(_ context.Context, dir, format string, res *agenda.Result) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	return export.Path(dir, res.Range, format), nil
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedClock() time.Time {
	return time.Date(2025, 3, 15, 23, 30, 0, 0, time.UTC)
}

func TestWindow(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	s, err := New(&fakeExporter{}, Config{DaysBack: 2, DaysAhead: 30, Location: saoPaulo}, WithLogger(quietLogger))
	require.NoError(t, err)

	r := s.Window(fixedClock())
	assert.Equal(t, "2025-03-13..2025-04-14", r.String())
	require.NoError(t, r.Validate())
}

func TestWindow_LocalDateDecidesToday(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	s, err := New(&fakeExporter{}, Config{Location: tokyo}, WithLogger(quietLogger))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-16..2025-03-16", s.Window(fixedClock()).String())
}

func TestRunOnce_WritesExport(t *testing.T) {
	ex := &fakeExporter{records: []calendar.EventRecord{{Title: "Consulta"}}}
	s, err := New(ex, Config{DaysAhead: 7, OutputDir: "/srv/agendas", Location: time.UTC},
		WithLogger(quietLogger), WithClock(fixedClock))
	require.NoError(t, err)

	run := s.RunOnce(context.Background())
	require.NoError(t, run.Err)
	assert.Equal(t, 1, run.Count)
	assert.Equal(t, "/srv/agendas/agenda_15-03-2025_a_22-03-2025.xlsx", run.Path)
	assert.Equal(t, []string{"/srv/agendas"}, ex.dirs)

	last := s.Last()
	require.NotNil(t, last)
	assert.Equal(t, run.Path, last.Path)
}

func TestRunOnce_EmptyWritesNothing(t *testing.T) {
	ex := &fakeExporter{records: []calendar.EventRecord{}}
	s, err := New(ex, Config{Location: time.UTC}, WithLogger(quietLogger), WithClock(fixedClock))
	require.NoError(t, err)

	run := s.RunOnce(context.Background())
	require.NoError(t, run.Err)
	assert.Empty(t, run.Path)
	assert.Empty(t, ex.dirs)
}

func TestRunOnce_Failure(t *testing.T) {
	ex := &fakeExporter{err: calendar.ErrFetchFailure}
	s, err := New(ex, Config{Location: time.UTC}, WithLogger(quietLogger), WithClock(fixedClock))
	require.NoError(t, err)

	run := s.RunOnce(context.Background())
	assert.True(t, errors.Is(run.Err, calendar.ErrFetchFailure))
	assert.Empty(t, ex.dirs)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&fakeExporter{}, Config{Spec: "not a cron"}, WithLogger(quietLogger))
	assert.ErrorContains(t, err, "invalid cron expression")

	_, err = New(&fakeExporter{}, Config{DaysBack: -1}, WithLogger(quietLogger))
	assert.Error(t, err)
}

func TestLast_BeforeFirstRun(t *testing.T) {
	s, err := New(&fakeExporter{}, Config{}, WithLogger(quietLogger))
	require.NoError(t, err)
	assert.Nil(t, s.Last())
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := New(&fakeExporter{}, Config{Spec: "@every 1h"}, WithLogger(quietLogger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return !s.Next().IsZero() }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
