// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/medremind/go-medicine-backend/internal/config"
	"github.com/medremind/go-medicine-backend/internal/domain"
	"github.com/medremind/go-medicine-backend/internal/http/handlers"
	"github.com/medremind/go-medicine-backend/internal/http/middleware"
	"github.com/medremind/go-medicine-backend/internal/notify"
	"github.com/medremind/go-medicine-backend/internal/repo"
	"github.com/medremind/go-medicine-backend/internal/services"
)

// planRepoShim adapts the repository free functions to the services.PlanRepo
// interface expected by the PlanService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type planRepoShim struct{}

// CreatePlan proxies repo.CreatePlan.
func (planRepoShim) CreatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) (*domain.MedicinePlan, error) {
	return repo.CreatePlan(ctx, db, p)
}

// ListPlans proxies repo.ListPlans.
func (planRepoShim) ListPlans(ctx context.Context, db *gorm.DB) ([]domain.MedicinePlan, error) {
	return repo.ListPlans(ctx, db)
}

// CountPlans proxies repo.CountPlans (pagination support).
func (planRepoShim) CountPlans(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPlans(ctx, db)
}

// ListPlansPage proxies repo.ListPlansPage (pagination support).
func (planRepoShim) ListPlansPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MedicinePlan, error) {
	return repo.ListPlansPage(ctx, db, offset, limit)
}

// GetPlan proxies repo.GetPlan.
func (planRepoShim) GetPlan(ctx context.Context, db *gorm.DB, id uint) (*domain.MedicinePlan, error) {
	return repo.GetPlan(ctx, db, id)
}

// UpdatePlan proxies repo.UpdatePlan.
func (planRepoShim) UpdatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) error {
	return repo.UpdatePlan(ctx, db, p)
}

// DeletePlan proxies repo.DeletePlan.
func (planRepoShim) DeletePlan(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeletePlan(ctx, db, id)
}

// SetNotificationsEnabled proxies repo.SetNotificationsEnabled.
func (planRepoShim) SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id uint, enabled bool) error {
	return repo.SetNotificationsEnabled(ctx, db, id, enabled)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// It also performs dependency injection and returns the constructed services
// so the caller can drive background work (reminder re-arming, the rollover
// worker, the periodic rollover ticker) against the same instances the
// handlers use.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sched *notify.Scheduler, bus *notify.Bus, cfg config.Config) (*services.PlanService, *services.RolloverService) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, repo.IdempotencyScopePlans, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API documentation (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/scheduler
	planSvc := services.NewPlanService(db, planRepoShim{}, sched)
	rolloverSvc := services.NewRolloverService(db, planSvc, cfg.Reminder.Location())

	h := handlers.New(planSvc, rolloverSvc, sched, bus)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Plans
		api.POST("/plans", h.CreatePlan)
		api.GET("/plans", h.ListPlans)
		api.GET("/plans/:id", h.GetPlan)
		api.PUT("/plans/:id", h.UpdatePlan)
		api.DELETE("/plans/:id", h.DeletePlan)
		api.PUT("/plans/:id/notifications", h.ToggleNotifications)

		// Reminders
		api.GET("/reminders", h.ListReminders)
		api.POST("/reminders/rollover", h.TriggerRollover)
		api.POST("/reminders/response", h.ReminderResponse)
	}

	return planSvc, rolloverSvc
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
