package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/forecheck/engine/internal/api/handler"
	"github.com/forecheck/engine/internal/cache"
	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/db"
	"github.com/forecheck/engine/internal/engine"
	"github.com/forecheck/engine/internal/recalc"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(pool *db.Pool, appCache *cache.Cache, cfg *config.Config, eng *engine.Engine, job *recalc.Job) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, appCache, cfg, eng, job)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Score configuration
		r.Get("/score-config", h.GetScoreConfig)
		r.Put("/score-config", h.PutScoreConfig)

		// Recalculation job
		r.Post("/recalculate", h.TriggerRecalculation)
		r.Get("/recalculate/status", h.RecalculationStatus)

		// Scans
		r.Route("/scans", func(r chi.Router) {
			r.Get("/", h.ListScans)
			r.Post("/", h.CreateScan)
			r.Post("/preview", h.PreviewScan)
			r.Post("/refresh-counts", h.RefreshScanCounts)
			r.Route("/{scanID}", func(r chi.Router) {
				r.Get("/", h.GetScan)
				r.Put("/", h.UpdateScan)
				r.Delete("/", h.DeleteScan)
				r.Post("/evaluate", h.EvaluateScan)
			})
		})

		// Players
		r.Get("/players/rolling-stats", h.ListRollingStats)
		r.Get("/players/{playerID}/score/{window}", h.ScoreBreakdown)

		// Alerts
		r.Get("/alerts", h.AlertFeed)
	})

	return r
}
