package router

import (
	"time"

	"agent-chat-relay/backend/internal/api"
	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/di"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"
	"agent-chat-relay/backend/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.SetTrustedProxies(cfg.Security.TrustedProxies)

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Apply rate limiting to all routes
	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit: rate.Limit(cfg.Security.RateLimit),
		Burst: cfg.Security.RateLimitBurst,
	})
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config))

	chatController := api.NewChatController(r.Container.AgentClient, r.Config, r.Logger)
	chatController.RegisterRoutes(r.Engine)

	// Prometheus scrape endpoint
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// corsMiddleware builds the CORS policy from configuration. Without
// configured origins every origin is allowed, which suits local
// development against a browser front end.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	return cors.New(corsConfig)
}
