// Package mcp exposes the data access facade and the analysis workflow as
// Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/newthinker/finscope/internal/analysis"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// Facade is the data access surface the tools call into.
type Facade interface {
	Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error)
	Price(ctx context.Context, symbol string, provider core.Provider) (*core.PriceTick, error)
	TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error)
	Indicator(ctx context.Context, req collector.IndicatorRequest, provider core.Provider) (*core.IndicatorSeries, error)
	CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error)
	Earnings(ctx context.Context, symbol string, provider core.Provider) (*core.Earnings, error)
	PriceTarget(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error)
	AnalystSentiment(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error)
}

// Analyzer runs the stock analysis workflow.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, opts analysis.Options) (*analysis.Report, error)
}

// Recorder observes tool calls
type Recorder interface {
	RecordToolCall(tool, outcome string)
}

// Tool call outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

const DefaultRequestTimeout = 30 * time.Second

// Config holds MCP server settings
type Config struct {
	Name           string
	Version        string
	RequestTimeout time.Duration // per tool call, 0 selects the default
}

// Server wraps an MCP server with the finscope tool set.
type Server struct {
	cfg      Config
	mcp      *mcpserver.MCPServer
	facade   Facade
	analyzer Analyzer
	recorder Recorder
	logger   *zap.Logger
}

// New creates a server and registers every tool. analyzer may be nil, in
// which case analyze_stock is not offered.
func New(cfg Config, facade Facade, analyzer Analyzer, logger *zap.Logger) (*Server, error) {
	if facade == nil {
		return nil, errors.New("mcp: facade is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "finscope"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{
		cfg:      cfg,
		mcp:      mcpserver.NewMCPServer(cfg.Name, cfg.Version, mcpserver.WithToolCapabilities(false)),
		facade:   facade,
		analyzer: analyzer,
		logger:   logger.With(zap.String("component", "mcp")),
	}
	s.registerTools()
	return s, nil
}

// SetRecorder sets the tool call recorder
func (s *Server) SetRecorder(rec Recorder) {
	s.recorder = rec
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in/out until ctx is cancelled or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	s.logger.Info("serving mcp over stdio", zap.String("name", s.cfg.Name))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// ServeStdioProcess serves on the process's standard streams.
func (s *Server) ServeStdioProcess(ctx context.Context) error {
	return s.ServeStdio(ctx, os.Stdin, os.Stdout)
}

// HTTPHandler returns a stateless streamable HTTP handler for the tool set.
func (s *Server) HTTPHandler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcp, mcpserver.WithStateLess(true))
}

// ServeHTTP listens on addr with the streamable HTTP transport and shuts
// down when ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.HTTPHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving mcp over http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
