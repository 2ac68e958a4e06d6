package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailed bool) (*Provider, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if provider.Metrics() == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	return provider, ctx
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	// Should not panic
	provider.Metrics().RecordHTTPRequest(ctx, "GET", "/", 200, 100*time.Millisecond)
	provider.Metrics().RecordHTTPRequest(ctx, "POST", "/events", 500, 50*time.Millisecond)
}

func TestMetrics_RecordCalendarPage(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordCalendarPage(ctx, "cal@group.calendar.google.com", StatusSuccess, 300*time.Millisecond)
	provider.Metrics().RecordCalendarPage(ctx, "cal@group.calendar.google.com", StatusError, 10*time.Millisecond)
}

func TestMetrics_RecordCalendarPage_DetailedLabels(t *testing.T) {
	provider, ctx := newTestProvider(t, true)

	provider.Metrics().RecordCalendarPage(ctx, "cal@group.calendar.google.com", StatusSuccess, time.Second)
	provider.Metrics().RecordCalendarPage(ctx, "", StatusSuccess, time.Second)
}

func TestMetrics_RecordCalendarEvents(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordCalendarEvents(ctx, 2998, 2)
	provider.Metrics().RecordCalendarEvents(ctx, 0, 0)
}

func TestMetrics_RecordOAuth(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordOAuthAuth(ctx, "local-server", OAuthResultSuccess)
	provider.Metrics().RecordOAuthAuth(ctx, "service-account", OAuthResultFailure)
	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
}

func TestMetrics_RecordExport(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordExport(ctx, FormatXLSX, StatusSuccess)
	provider.Metrics().RecordExport(ctx, FormatICS, StatusError)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordToolInvocation(ctx, "agenda_list_events", StatusSuccess, 2*time.Second)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordCalendarPage(ctx, "cal", StatusSuccess, time.Millisecond)
	metrics.RecordCalendarEvents(ctx, 1, 1)
	metrics.RecordOAuthAuth(ctx, "console", OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordExport(ctx, FormatXLSX, StatusSuccess)
	metrics.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// A nil recorder is a valid no-op
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordCalendarPage(ctx, "cal", StatusSuccess, time.Millisecond)
	metrics.RecordCalendarEvents(ctx, 1, 1)
	metrics.RecordOAuthAuth(ctx, "console", OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	metrics.RecordExport(ctx, FormatICS, StatusSuccess)
	metrics.RecordToolInvocation(ctx, "tool", StatusError, time.Millisecond)
}
