package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"catalog-recon/internal/config"
	"catalog-recon/internal/metrics"
	"catalog-recon/internal/middleware"
	recHnd "catalog-recon/internal/reconcile/handler"
	recSvc "catalog-recon/internal/reconcile/service"
	"catalog-recon/server/http/handlers"
)

func NewRouter(cfg config.Config, engine *recSvc.Engine, m *metrics.Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	var obs middleware.HTTPObserver
	if m != nil {
		obs = m
	}

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger, obs))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	// health-check
	r.Get("/health", handlers.Health)
	if gatherer != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// основной эндпоинт
	r.Post("/reconcile", recHnd.Reconcile(cfg, engine, logger))

	return r
}
