package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/novacast/internal/aggregator"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/metrics"
	"github.com/vzahanych/novacast/internal/server/handlers"
	"github.com/vzahanych/novacast/internal/server/middlewares"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	server  *http.Server
	agg     *aggregator.Aggregator
	metrics *metrics.Provider
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

// quietPaths are logged at debug level and never traced.
var quietPaths = []string{"/health", "/health/live", "/health/ready", "/metrics"}

// NewServer wires the predict backend, health, metrics and the static
// frontend onto a gin engine.
func NewServer(cfg *config.Config, agg *aggregator.Aggregator, provider *metrics.Provider, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware(logger))
	engine.Use(middlewares.LoggingMiddleware(logger, true, quietPaths...))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.CORSMiddleware())
	engine.Use(middlewares.TelemetryMiddleware(logger, tele, quietPaths...))
	engine.Use(middlewares.MetricsMiddleware(logger, provider))

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		agg:     agg,
		metrics: provider,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Business endpoints
	s.engine.POST("/api/predict", handlers.NewPredictHandler(s.agg, s.logger).Predict)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.agg, s.logger)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.metrics.Handler()).ServeMetrics)

	// Frontend
	s.engine.NoRoute(handlers.NewStaticHandler(s.cfg.Server.StaticDir).Serve)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
