// Package api serves the data access facade over JSON HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handlers "github.com/newthinker/finscope/internal/api/handler/api"
	"github.com/newthinker/finscope/internal/api/job"
	"github.com/newthinker/finscope/internal/api/middleware"
	"github.com/newthinker/finscope/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// background analysis jobs kept for polling
const (
	jobStoreSize = 256
	jobTTL       = time.Hour
)

// Server represents the HTTP server for finscope
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string // empty disables the metrics endpoint
}

// Dependencies holds what the handlers serve
type Dependencies struct {
	Facade   handlers.Facade
	Analyzer handlers.Analyzer // nil disables the analysis endpoint
	Metrics  *metrics.Registry // nil disables HTTP metrics
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Facade == nil {
		return nil, fmt.Errorf("api: facade is required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = s.mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	v1 := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	market := handlers.NewMarketHandler(deps.Facade)
	v1("GET /api/v1/quote/{symbol}", market.Quote)
	v1("GET /api/v1/price/{symbol}", market.Price)
	v1("GET /api/v1/time_series/{symbol}", market.TimeSeries)
	v1("GET /api/v1/indicators/{indicator}/{symbol}", market.Indicator)
	v1("GET /api/v1/companies/{symbol}/overview", market.CompanyOverview)
	v1("GET /api/v1/companies/{symbol}/earnings", market.Earnings)
	v1("GET /api/v1/analysts/{symbol}/price_target", market.PriceTarget)
	v1("GET /api/v1/analysts/{symbol}/sentiment", market.AnalystSentiment)
	v1("GET /api/v1/routes", market.Routes)

	if deps.Analyzer != nil {
		analysisHandler := handlers.NewAnalysisHandler(deps.Analyzer, job.NewStore(jobStoreSize, jobTTL))
		v1("POST /api/v1/analysis/{symbol}", analysisHandler.Run)
		v1("GET /api/v1/analysis/jobs/{id}", analysisHandler.Job)
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
