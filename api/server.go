package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/pkg/logger"
)

// Options configures the HTTP server
type Options struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RequestsPerSecond int
	Version           string
}

// Server represents the HTTP server
type Server struct {
	engine             *gin.Engine
	httpServer         *http.Server
	opts               Options
	log                *logger.Logger
	rateLimiters       *sync.Map
	cleanupInitialized sync.Once
	cleanupStop        chan struct{}
	stopOnce           sync.Once

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server
func NewServer(opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	// Create Gin engine with recovery middleware only
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		engine:       engine,
		opts:         opts,
		log:          log,
		rateLimiters: &sync.Map{},
		cleanupStop:  make(chan struct{}),
		httpServer: &http.Server{
			Addr:           opts.Address,
			Handler:        engine,
			ReadTimeout:    opts.ReadTimeout,
			WriteTimeout:   opts.WriteTimeout,
			IdleTimeout:    opts.ReadTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	s.engine.Use(RequestLogger(s.log))
	s.engine.Use(CORS())

	return RegisterRoutes(s.engine, s.dependencies, RouteOptions{
		Version:           s.opts.Version,
		RequestsPerSecond: s.opts.RequestsPerSecond,
		rateLimiters:      s.rateLimiters,
		cleanupStop:       s.cleanupStop,
		cleanupOnce:       &s.cleanupInitialized,
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("status API listening", "address", s.opts.Address)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the rate limiter cleanup goroutine
	s.stopOnce.Do(func() { close(s.cleanupStop) })

	return s.httpServer.Shutdown(ctx)
}
