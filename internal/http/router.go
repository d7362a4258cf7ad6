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

	"github.com/adiouf/go-consular-backend/internal/config"
	"github.com/adiouf/go-consular-backend/internal/domain"
	"github.com/adiouf/go-consular-backend/internal/http/handlers"
	"github.com/adiouf/go-consular-backend/internal/http/middleware"
	"github.com/adiouf/go-consular-backend/internal/repo"
	"github.com/adiouf/go-consular-backend/internal/services"
)

// requestRepoShim adapts the repository free functions to the
// services.RequestRepo interface expected by RequestService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type requestRepoShim struct{}

// CreateRequest proxies repo.CreateRequest.
func (requestRepoShim) CreateRequest(ctx context.Context, db *gorm.DB, req *domain.Request) error {
	return repo.CreateRequest(ctx, db, req)
}

// GetRequest proxies repo.GetRequest.
func (requestRepoShim) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	return repo.GetRequest(ctx, db, id)
}

// GetRequestByTicket proxies repo.GetRequestByTicket.
func (requestRepoShim) GetRequestByTicket(ctx context.Context, db *gorm.DB, ticket string) (*domain.Request, error) {
	return repo.GetRequestByTicket(ctx, db, ticket)
}

// CountRequests proxies repo.CountRequests (pagination support).
func (requestRepoShim) CountRequests(ctx context.Context, db *gorm.DB, f services.ListFilter) (int64, error) {
	return repo.CountRequests(ctx, db, toRepoFilter(f))
}

// ListRequestsPage proxies repo.ListRequestsPage (pagination support).
func (requestRepoShim) ListRequestsPage(ctx context.Context, db *gorm.DB, f services.ListFilter, offset, limit int) ([]domain.Request, error) {
	return repo.ListRequestsPage(ctx, db, toRepoFilter(f), offset, limit)
}

// ApplyStatusChange proxies repo.ApplyStatusChange.
func (requestRepoShim) ApplyStatusChange(ctx context.Context, db *gorm.DB, req *domain.Request, entry *domain.StatusHistoryEntry) error {
	return repo.ApplyStatusChange(ctx, db, req, entry)
}

// ListStatusHistory proxies repo.ListStatusHistory.
func (requestRepoShim) ListStatusHistory(ctx context.Context, db *gorm.DB, requestID string) ([]domain.StatusHistoryEntry, error) {
	return repo.ListStatusHistory(ctx, db, requestID)
}

// toRepoFilter maps the service-level list filter onto the repo query filter.
func toRepoFilter(f services.ListFilter) repo.Filter {
	return repo.Filter{
		Status:       f.Status,
		ServiceType:  f.ServiceType,
		TicketNumber: f.TicketNumber,
		From:         f.From,
		To:           f.To,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//  10. Gzip compression for responses
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
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
	corsAllowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"If-None-Match", "X-User-ID", "X-Actor-ID", middleware.HeaderIdempotencyKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
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
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
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

	// 10) Compress JSON payloads (listings with preloaded details get large)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	reqSvc := services.NewRequestService(db, requestRepoShim{})
	reqSvc.TicketPrefix = cfg.TicketPrefix
	reqSvc.Notifier = services.NewLogNotifier()

	h := handlers.New(reqSvc, cfg.IdempotencyTTL)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Requests
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/stats", h.GetStats)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/status", h.UpdateStatus)

		// Audit & workflow introspection
		api.GET("/requests/:id/history", h.GetHistory)
		api.GET("/requests/:id/allowed-transitions", h.GetAllowedTransitions)
	}
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
