package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/ternhq/tern/config"
	"github.com/ternhq/tern/internal/pkg/metrics"
)

func NewRouter(handlers *Handlers, logger *slog.Logger, cfg *config.Config, metricsRegistry metrics.Registry) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.PrometheusMiddleware(metricsRegistry))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.HandleHealth)
	r.Get("/ready", handlers.HandleReady)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metricsRegistry.GetHandler())
	}

	r.Get("/swagger/*", httpswagger.Handler(
		httpswagger.URL(cfg.App.BaseURL+"/swagger/doc.json"),
	))

	r.Post("/shorten", handlers.HandleShorten)

	r.Get("/stats", handlers.HandleStatsList)
	r.Get("/stats/{code}", handlers.HandleStatsGet)
	r.Delete("/stats/{code}", handlers.HandleStatsDelete)

	r.Get("/{code}", handlers.HandleRedirect)
	r.Head("/{code}", handlers.HandleRedirect)

	return r
}
