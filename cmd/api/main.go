// Command api serves the Bay Area dashboard feeds.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/observability/logging"
	"bayarea-dashboard/internal/observability/tracing"
	"bayarea-dashboard/internal/usecase/relevance"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load feed catalog",
			slog.String("path", cfg.CatalogPath),
			slog.Any("error", err))
		os.Exit(1)
	}

	relevanceCfg := relevance.DefaultConfig()
	if cfg.RelevancePath != "" {
		if relevanceCfg, err = relevance.LoadConfig(cfg.RelevancePath); err != nil {
			logger.Error("failed to load relevance config",
				slog.String("path", cfg.RelevancePath),
				slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownTracing, err := tracing.InitProvider(context.Background(), tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "bayarea-dashboard",
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.OTLPEndpoint,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Error("failed to initialise tracing", slog.Any("error", err))
		os.Exit(1)
	}

	app := newApp(cfg, catalog, relevanceCfg, logger)
	runServer(logger, cfg, app.handler)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown failed", slog.Any("error", err))
	}
}

// runServer serves until SIGINT or SIGTERM, then drains in-flight requests
// for at most cfg.ShutdownTimeout.
func runServer(logger *slog.Logger, cfg config.AppConfig, handler http.Handler) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
