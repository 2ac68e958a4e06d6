package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultWebAddr is the default listen address of the web form.
const DefaultWebAddr = "127.0.0.1:8080"

const (
	webReadHeaderTimeout = 10 * time.Second
	webIdleTimeout       = 60 * time.Second
	downloadSweepEvery   = time.Minute
)

// WebServer serves the agenda form until shut down.
type WebServer struct {
	sc        *ServerContext
	health    *HealthChecker
	downloads *DownloadStore
	handler   http.Handler
	addr      string

	mu         sync.Mutex
	httpServer *http.Server
}

// WebServerConfig wires a WebServer.
type WebServerConfig struct {
	Addr      string
	Context   *ServerContext
	Health    *HealthChecker
	Downloads *DownloadStore
	Handler   http.Handler
}

// NewWebServer creates a WebServer. Zero fields get defaults.
func NewWebServer(config WebServerConfig) *WebServer {
	if config.Addr == "" {
		config.Addr = DefaultWebAddr
	}
	if config.Context == nil {
		config.Context = NewServerContext(context.Background())
	}
	return &WebServer{
		sc:        config.Context,
		health:    config.Health,
		downloads: config.Downloads,
		handler:   config.Handler,
		addr:      config.Addr,
	}
}

// Start listens on the configured address.
func (s *WebServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *WebServer) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: webReadHeaderTimeout,
		IdleTimeout:       webIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.sc.Context() },
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	if s.downloads != nil {
		go s.downloads.Run(s.sc.Context(), downloadSweepEvery)
	}

	slog.Info("starting web server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Shutdown marks the server not ready, cancels in-flight extractions and
// waits for open requests to finish.
func (s *WebServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetReady(false)
	}
	s.sc.Shutdown()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	slog.Info("shutting down web server")
	return srv.Shutdown(ctx)
}

// Addr returns the configured address.
func (s *WebServer) Addr() string {
	return s.addr
}
