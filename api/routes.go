package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/diarist/api/health"
	"github.com/killallgit/diarist/api/sessions"
	"github.com/killallgit/diarist/api/speakers"
	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/api/version"
	_ "github.com/killallgit/diarist/docs/swagger"
)

// RouteOptions carries the settings RegisterRoutes needs
type RouteOptions struct {
	Version           string
	RequestsPerSecond int

	rateLimiters *sync.Map
	cleanupStop  chan struct{}
	cleanupOnce  *sync.Once
}

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, opts RouteOptions) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}
	if opts.rateLimiters == nil {
		opts.rateLimiters = &sync.Map{}
		opts.cleanupStop = make(chan struct{})
		opts.cleanupOnce = &sync.Once{}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, opts.Version)

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// API v1 routes share one per-client limiter
	v1 := engine.Group("/api/v1")
	v1.Use(PerClientRateLimit(opts.rateLimiters, opts.cleanupStop, opts.cleanupOnce, rps, rps*2))

	sessions.RegisterRoutes(v1.Group("/sessions"), deps)
	speakers.RegisterRoutes(v1.Group("/speakers"), deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
