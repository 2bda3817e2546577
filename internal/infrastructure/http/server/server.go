// Package server provides the JSON API HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	"github.com/alchemorsel/nutriguide/pkg/healthcheck"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	service inbound.RecommendationService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingProvider,
) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("http-server"),
	}

	s.router = s.setupRouter(service, health, metrics, tracing)
	s.server = &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRouter configures middleware and routes
func (s *Server) setupRouter(
	service inbound.RecommendationService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingProvider,
) *gin.Engine {
	if !s.config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		s.logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	mw := middleware.New(s.config, tracing, s.logger)
	r.Use(
		mw.RequestID(),
		mw.Recovery(),
		mw.Logger(),
		mw.Security(),
		mw.CORS(),
		mw.Tracing(),
	)
	if metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Use(metrics.HTTPMiddleware())
		r.GET(s.config.Monitoring.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	r.GET(s.config.Monitoring.HealthCheckPath, health.Handler())
	r.GET("/health/live", health.LivenessHandler())
	r.GET("/health/ready", health.ReadinessHandler())

	v1 := r.Group("/api/v1")
	v1.Use(mw.RateLimit(), mw.Timeout(s.config.Server.RequestTimeout), mw.ErrorHandler())
	handlers.NewRecommendationHandlers(service, s.logger).Register(v1)

	return r
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
