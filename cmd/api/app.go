package main

import (
	"log/slog"
	"net/http"

	"bayarea-dashboard/internal/cache"
	"bayarea-dashboard/internal/config"
	hhttp "bayarea-dashboard/internal/handler/http"
	hfeed "bayarea-dashboard/internal/handler/http/feed"
	"bayarea-dashboard/internal/handler/http/middleware"
	"bayarea-dashboard/internal/handler/http/requestid"
	"bayarea-dashboard/internal/infra/upstream"
	"bayarea-dashboard/internal/observability/tracing"
	"bayarea-dashboard/internal/usecase/assemble"
	"bayarea-dashboard/internal/usecase/collect"
	"bayarea-dashboard/internal/usecase/feed"
	"bayarea-dashboard/internal/usecase/relevance"
	"bayarea-dashboard/pkg/clock"
)

// app is the wired service.
type app struct {
	handler http.Handler
	store   *cache.MemoryStore
	feeds   *feed.Service
}

// newApp wires the catalog's feeds behind the HTTP routes.
func newApp(cfg config.AppConfig, catalog *config.Catalog, relevanceCfg relevance.Config, logger *slog.Logger) *app {
	clk := clock.System{}

	limiters := upstream.NewLimiterRegistry(catalog.Limiters)
	factory := upstream.NewFactory(upstream.FactoryConfig{
		Client:         &http.Client{Transport: http.DefaultTransport},
		UserAgent:      cfg.UserAgent,
		Limiters:       limiters,
		DefaultTimeout: cfg.UpstreamTimeout,
	})

	store := cache.NewMemoryStore(clk)
	assembler := assemble.New(store,
		assemble.WithClock(clk),
		assemble.WithLogger(logger),
		assemble.WithProducerTimeout(cfg.ProducerTimeout),
	)
	svc := feed.NewService(catalog, factory, collect.New(nil), assembler, relevance.NewFilter(relevanceCfg), clk)

	mux := http.NewServeMux()
	hfeed.Register(mux, svc)
	// ヘルスチェックとメトリクス
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Version:  cfg.Version,
		Feeds:    len(catalog.Feeds),
		Cache:    store,
		Limiters: limiters,
	})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	cors := middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)
	cors.Logger = logger

	handler := hhttp.Chain(mux,
		middleware.CORS(cors),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.MetricsMiddleware,
		hhttp.Recover(logger),
		hhttp.InputValidation(),
	)

	logger.Info("feeds configured",
		slog.Int("feeds", len(catalog.Feeds)),
		slog.Any("limiters", limiters.Names()),
		slog.Int("cors_origins", len(cfg.CORSAllowedOrigins)))

	return &app{handler: handler, store: store, feeds: svc}
}
