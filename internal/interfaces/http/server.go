// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Checker reports whether a backing service is reachable.
type Checker interface {
	Health(ctx context.Context) error
}

// Options carries the server's collaborators.
type Options struct {
	Database    Checker
	Cache       Checker
	RateLimiter *redis.Client
	Metrics     *metrics.Metrics
	Handlers    *routes.Handlers
	Logger      logrus.FieldLogger
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	opts       Options
	gin        *gin.Engine
	httpServer *http.Server
	logger     logrus.FieldLogger
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		config:    cfg,
		opts:      opts,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler builds the gin engine on first use.
func (s *Server) Handler() http.Handler {
	if s.gin == nil {
		s.gin = gin.New()
		s.setupMiddleware()
		s.setupRoutes()
	}
	return s.gin
}

// Start serves until Stop is called
func (s *Server) Start() error {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.WithFields(logrus.Fields{
		"port":    s.config.Server.Port,
		"api":     "/api/v1",
		"health":  "/health",
		"metrics": s.metricsPath(),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithField("panic", recovered).Error("recovered from panic")
		response.Abort(c, http.StatusInternalServerError, "internal server error")
	}))
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders(s.config.App.Name))
	if s.opts.Metrics != nil {
		s.gin.Use(middleware.Metrics(s.opts.Metrics))
	}
	if s.opts.RateLimiter != nil {
		s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.opts.RateLimiter, s.logger))
	}
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	if s.opts.Metrics != nil && s.config.Metrics.Enabled {
		s.gin.GET(s.metricsPath(), gin.WrapH(s.opts.Metrics.Handler()))
	}
	if s.config.Upload.PublicPath != "" && s.config.Upload.LocalPath != "" {
		s.gin.Static(s.config.Upload.PublicPath, s.config.Upload.LocalPath)
	}

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.opts.Handlers)

	s.gin.NoRoute(func(c *gin.Context) {
		response.Abort(c, http.StatusNotFound, "route not found")
	})
}

func (s *Server) metricsPath() string {
	if s.config.Metrics.Path == "" {
		return "/metrics"
	}
	return s.config.Metrics.Path
}

// healthCheck pings the database and Redis
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for name, checker := range map[string]Checker{"database": s.opts.Database, "redis": s.opts.Cache} {
		if checker == nil {
			continue
		}
		if err := checker.Health(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			checks[name] = "unhealthy"
			healthy = false
			continue
		}
		checks[name] = "healthy"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status,
		"checks":      checks,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports that routes are mounted
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
