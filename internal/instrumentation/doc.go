// Package instrumentation provides OpenTelemetry instrumentation for
// agenda-extractor.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, calendar page requests, OAuth
//     operations, exports and MCP tool invocations
//   - Distributed tracing for calendar API calls and tool invocations
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Calendar Metrics:
//   - calendar_page_requests_total: Counter of events.list page requests by status
//   - calendar_page_duration_seconds: Histogram of page request durations
//   - calendar_events_fetched_total: Counter of records returned to callers
//   - calendar_events_excluded_total: Counter of placeholder items filtered out
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of credential issuance attempts by strategy and result
//   - oauth_token_refresh_total: Counter of refresh attempts by result
//
// Export Metrics:
//   - exports_total: Counter of generated files by format and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: agenda-extractor)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordCalendarPage(ctx, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
