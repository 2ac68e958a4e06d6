package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iavc/agenda-extractor/internal/instrumentation"
)

// RouterOptions wires the web server.
type RouterOptions struct {
	Handler *Handler
	Health  *HealthChecker
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// NewRouter builds the web form router.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestMetrics(opts.Metrics, logger))

	if opts.Health != nil {
		opts.Health.RegisterHealthEndpoints(r)
	}
	if opts.Handler != nil {
		opts.Handler.Routes(r)
	}
	return r
}

// requestMetrics records every request under its route pattern so path
// parameters do not inflate label cardinality.
func requestMetrics(m *instrumentation.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			m.RecordHTTPRequest(r.Context(), r.Method, pattern, status, elapsed)
			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", pattern),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.String("request_id", chimw.GetReqID(r.Context())))
		})
	}
}
