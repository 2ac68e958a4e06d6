package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *HealthChecker, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterHealthEndpoints(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil, nil)
	h.SetReady(false)

	rec, body := serveHealth(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, healthStatusOK, body["status"])
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		wantCode   int
		wantStatus string
	}{
		{"ready", true, false, http.StatusOK, healthStatusOK},
		{"not ready", false, false, http.StatusServiceUnavailable, healthStatusNotReady},
		{"shutting down", true, true, http.StatusServiceUnavailable, healthStatusNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewServerContext(context.Background())
			if tt.shutdown {
				sc.Shutdown()
			}
			h := NewHealthChecker(sc, nil)
			h.SetReady(tt.ready)

			rec, body := serveHealth(t, h, "/readyz")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	downloads := NewDownloadStore(0)
	downloads.Put("a.xlsx", xlsxContentType, []byte("x"))
	h := NewHealthChecker(NewServerContext(context.Background()), downloads)

	rec, body := serveHealth(t, h, "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, body["status"])
	assert.Equal(t, float64(1), body["pending_downloads"])
	assert.NotEmpty(t, body["uptime"])
}

func TestDetailedHealthHandler_ShuttingDown(t *testing.T) {
	sc := NewServerContext(context.Background())
	sc.Shutdown()
	sc.Shutdown()

	rec, body := serveHealth(t, NewHealthChecker(sc, nil), "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusShuttingDown, body["status"])
	assert.Error(t, sc.Context().Err())
}
