package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/access"
	"github.com/iavc/agenda-extractor/internal/config"
	"github.com/iavc/agenda-extractor/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		listen        string
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agenda form over HTTP",
		Long: `Start a small web server with a form that asks for a start and an end
date, shows the matching events in a table and offers the spreadsheet as a
one-time download.

When access.mode is "shared-secret" or "bcrypt" the form also asks for an
access code and rejects submissions without the right one.

Prometheus metrics are served on --metrics-listen when
INSTRUMENTATION_ENABLED is true and METRICS_EXPORTER is "prometheus".

Credentials must be usable without a browser on the server host: run
"agenda-extractor auth" first or use the service-account strategy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *appConfig
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if cmd.Flags().Changed("metrics-listen") {
				cfg.Server.MetricsListen = metricsListen
			}
			return runServe(&cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", server.DefaultWebAddr, "Address of the web form")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", server.DefaultMetricsAddr, "Address of the Prometheus metrics endpoint")
	return cmd
}

func runServe(cfg *config.Config) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Warn("error during instrumentation shutdown", slog.String("error", err.Error()))
		}
	}()

	gate, err := access.New(cfg.Access.Mode, cfg.Access.Secret, cfg.Access.SecretHash)
	if err != nil {
		return fmt.Errorf("invalid access configuration: %w", err)
	}

	serverContext := server.NewServerContext(ctx)
	downloads := server.NewDownloadStore(cfg.Server.DownloadTTL)
	health := server.NewHealthChecker(serverContext, downloads)
	metrics := a.telemetry.Metrics()

	handler := server.NewHandler(a.service, gate, downloads,
		server.WithLocation(a.location),
		server.WithHandlerLogger(slog.Default()))

	web := server.NewWebServer(server.WebServerConfig{
		Addr:      cfg.Server.Listen,
		Context:   serverContext,
		Health:    health,
		Downloads: downloads,
		Handler: server.NewRouter(server.RouterOptions{
			Handler: handler,
			Health:  health,
			Metrics: metrics,
			Logger:  slog.Default(),
		}),
	})

	var metricsServer *server.MetricsServer
	if a.telemetry.Enabled() && a.telemetry.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsListen,
			InstrumentationProvider: a.telemetry,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := web.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()
	health.SetReady(true)
	fmt.Printf("Agenda form listening on http://%s\n", web.Addr())

	var runErr error
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping web server...")
	case err := <-serverDone:
		if err != nil {
			runErr = fmt.Errorf("web server stopped with error: %w", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("error during metrics server shutdown", slog.String("error", err.Error()))
		}
	}
	if err := web.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("error shutting down web server: %w", err)
	}
	if runErr == nil {
		fmt.Println("Web server gracefully stopped")
	}
	return runErr
}
