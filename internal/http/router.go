// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samansalari/seenovate-appforge/internal/auth"
	"github.com/samansalari/seenovate-appforge/internal/config"
	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/generate"
	"github.com/samansalari/seenovate-appforge/internal/http/handlers"
	"github.com/samansalari/seenovate-appforge/internal/http/middleware"
	"github.com/samansalari/seenovate-appforge/internal/llm"
	"github.com/samansalari/seenovate-appforge/internal/logbus"
	"github.com/samansalari/seenovate-appforge/internal/ports"
	"github.com/samansalari/seenovate-appforge/internal/proxy"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/search"
	"github.com/samansalari/seenovate-appforge/internal/services"
	"github.com/samansalari/seenovate-appforge/internal/supervisor"
	"github.com/samansalari/seenovate-appforge/internal/ws"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by ChatService. This keeps the service decoupled from
// the concrete repo package while reusing existing functions.
type chatRepoShim struct{}

// CreateChat proxies repo.CreateChat.
func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, appID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, appID, title)
}

// ListChats proxies repo.ListChats.
func (chatRepoShim) ListChats(ctx context.Context, db *gorm.DB, appID string) ([]domain.Chat, error) {
	return repo.ListChats(ctx, db, appID)
}

// GetChat proxies repo.GetChat.
func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id, ownerUserID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, ownerUserID)
}

// UpdateChatTitle proxies repo.UpdateChatTitle.
func (chatRepoShim) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, ownerUserID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, ownerUserID, title)
}

// CountChats proxies repo.CountChats (pagination support).
func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, appID string) (int64, error) {
	return repo.CountChats(ctx, db, appID)
}

// ListChatsPage proxies repo.ListChatsPage (pagination support).
func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, appID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, appID, offset, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// idx is accepted for backward-compatible wiring with callers that maintain a
// shared search.Index (e.g. a warm cache for other subsystems); the App/Chat
// search paths build their own short-lived relevance index per query and do
// not depend on it.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, idx search.Index, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

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
		func(ctx context.Context, userID, resourceID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, resourceID, key, now)
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
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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

	// Dependency injection: services ← repo/db
	appSvc := services.NewAppService(db)
	chatSvc := services.NewChatService(db, chatRepoShim{})
	msgSvc := &services.MessageService{
		DB:             db,
		MaxPromptRunes: 2000,
		TitleMaxLen:    60,
	}

	h := handlers.New(appSvc, chatSvc, msgSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Apps
		api.POST("/apps", h.CreateApp)
		api.GET("/apps", h.ListApps)
		api.GET("/apps/search", h.SearchApps)
		api.GET("/apps/:id", h.GetApp)
		api.PUT("/apps/:id", h.UpdateApp)
		api.DELETE("/apps/:id", h.DeleteApp)
		api.POST("/apps/:id/favorite", h.ToggleFavorite)

		// Chats (scoped to an app)
		api.POST("/chats/app/:appId", h.CreateChat)
		api.GET("/chats/app/:appId", h.ListChats)
		api.GET("/chats/app/:appId/search", h.SearchChats)
		api.PUT("/chats/:id/title", h.UpdateChatTitle)
		api.DELETE("/chats/:id", h.DeleteChat)

		// Messages
		api.GET("/chats/:id/messages", h.ListMessages)
		api.POST("/chats/:id/messages", h.PostMessage)
		api.POST("/chats/:id/messages/redo", h.RedoMessage)
	}

	// Auth (public)
	authHandlers := handlers.NewAuthHandlers(db, cfg.JWTSecret)
	authGroup := groupWithPrefix(r, apiBase).Group("/auth")
	{
		authGroup.POST("/register", authHandlers.Register)
		authGroup.POST("/login", authHandlers.Login)
	}

	// Process Supervisor, Generation Pipeline, and Preview Proxy sit behind
	// bearer-token auth: they act directly on a workspace's file tree and
	// child process, so path opacity alone (the X-User-ID-only posture
	// above) isn't enough. The Subscription Fabric at /ws is mounted without
	// the auth middleware, and its join-app messages are not checked against
	// workspace ownership.
	bus := logbus.New()
	allocator := ports.New(cfg.Workspace.PortPoolBase, cfg.Workspace.PortPoolSize)
	sup := supervisor.New(allocator, bus, supervisor.Config{
		InstallTimeout: cfg.Workspace.InstallTimeout,
	})

	pipeline := &generate.Pipeline{
		DB:              db,
		Messages:        msgSvc,
		Sessions:        generate.NewRegistry(),
		StoragePath:     cfg.Workspace.StoragePath,
		DefaultProvider: cfg.Providers.DefaultProvider,
		DefaultModel:    cfg.Providers.DefaultModel,
		Credentials: llm.Credentials{
			OpenAIAPIKey:    cfg.Providers.OpenAIAPIKey,
			AnthropicAPIKey: cfg.Providers.AnthropicAPIKey,
			GoogleAPIKey:    cfg.Providers.GoogleAPIKey,
		},
	}
	streamHandlers := handlers.NewStreamHandlers(pipeline)
	processHandlers := handlers.NewProcessHandlers(db, sup, cfg.Workspace.StoragePath)
	previewHandlers := handlers.NewPreviewHandlers(db, proxy.New(sup))
	fileHandlers := handlers.NewFileHandlers(db, cfg.Workspace.StoragePath)
	hub := ws.NewHub(bus)

	protected := groupWithPrefix(r, apiBase).Group("")
	protected.Use(auth.Middleware(cfg.JWTSecret))
	{
		protected.POST("/stream/:id", streamHandlers.Stream)
		protected.POST("/stream/cancel/:streamId", streamHandlers.Cancel)

		protected.POST("/process/:id/start", processHandlers.Start)
		protected.POST("/process/:id/stop", processHandlers.Stop)
		protected.GET("/process/:id/status", processHandlers.Status)

		protected.GET("/files/app/:id", fileHandlers.List)
		protected.GET("/files/app/:id/*path", fileHandlers.Read)
		protected.PUT("/files/app/:id/*path", fileHandlers.Write)
		protected.DELETE("/files/app/:id/*path", fileHandlers.Delete)

		protected.GET("/auth/me", authHandlers.Me)
	}

	r.Any("/preview/:workspaceId/*path", func(c *gin.Context) {
		auth.Middleware(cfg.JWTSecret)(c)
		if c.IsAborted() {
			return
		}
		previewHandlers.Serve(c)
	})

	r.GET("/ws", gin.WrapF(hub.ServeHTTP))
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
