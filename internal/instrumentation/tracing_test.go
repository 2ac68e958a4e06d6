package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs a recording tracer provider for the duration of the test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "agenda.extract", attribute.Int("days", 3))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "agenda.extract" {
		t.Errorf("span name = %q, want %q", ended[0].Name(), "agenda.extract")
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartToolSpan(context.Background(), "agenda_list_events")
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.agenda_list_events" {
		t.Errorf("span name = %q", ended[0].Name())
	}
}

func TestStartCalendarSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartCalendarSpan(context.Background(), "events.list", "cal-id", attribute.Int(SpanAttrPage, 1))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "google.calendar.events.list" {
		t.Errorf("span name = %q", ended[0].Name())
	}

	found := false
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == SpanAttrCalendar && kv.Value.AsString() == "cal-id" {
			found = true
		}
	}
	if !found {
		t.Error("expected calendar.id attribute on span")
	}
}

func TestSetSpanError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "failing")
	SetSpanError(span, errors.New("boom"))
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Error {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestSetSpanError_Nil(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "fine")
	SetSpanError(span, nil)
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Unset {
		t.Errorf("status = %v, want Unset", got)
	}
}

func TestSetSpanSuccess(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "ok")
	SetSpanSuccess(span)
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Ok {
		t.Errorf("status = %v, want Ok", got)
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
}

func TestGetTraceID_WithSpan(t *testing.T) {
	withRecorder(t)

	ctx, span := StartSpan(context.Background(), "traced")
	defer span.End()

	if id := GetTraceID(ctx); id == "" {
		t.Error("expected trace ID for recorded span")
	}
}
