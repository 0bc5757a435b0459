// Package app assembles finscope from configuration: provider adapters,
// the routing facade, metrics, the analysis workflow and the servers that
// expose them.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/analysis"
	"github.com/newthinker/finscope/internal/api"
	"github.com/newthinker/finscope/internal/cache"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/collector/alphavantage"
	"github.com/newthinker/finscope/internal/collector/twelvedata"
	"github.com/newthinker/finscope/internal/collector/yahoo"
	"github.com/newthinker/finscope/internal/config"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/llm"
	"github.com/newthinker/finscope/internal/llm/factory"
	"github.com/newthinker/finscope/internal/mcp"
	"github.com/newthinker/finscope/internal/metrics"
	"github.com/newthinker/finscope/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App is the assembled application
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	providers  *collector.Registry
	router     *router.Router
	facade     router.Facade
	rdb        *redis.Client
	metrics    *metrics.Registry
	summarizer llm.Provider
	analyzer   *analysis.Analyzer
}

// New validates cfg and builds every component from it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		providers: collector.NewRegistry(),
	}
	a.registerProviders()

	a.router = router.New(RouterConfig(cfg.Routing), a.providers, logger.Named("router"))

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
		a.router.SetRecorder(a.metrics)
	}

	a.facade = a.router
	if cfg.Cache.Enabled {
		a.facade = a.newCache()
	}

	if cfg.LLM.Provider != "" {
		summarizer, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating llm provider: %w", err)
		}
		a.summarizer = summarizer
	}

	a.analyzer = analysis.New(analysis.Config{
		HistoryBars: cfg.Analysis.HistoryBars,
		Interval:    core.Interval(cfg.Analysis.Interval),
		Timeout:     cfg.Analysis.Timeout,
	}, a.facade, a.summarizer, logger.Named("analysis"))
	if a.metrics != nil {
		a.analyzer.SetRecorder(a.metrics)
	}

	a.logger.Info("finscope assembled",
		zap.Strings("providers", providerNames(a.providers.Names())),
		zap.Bool("fallback", cfg.Routing.Fallback),
		zap.String("llm", cfg.LLM.Provider),
		zap.Bool("metrics", a.metrics != nil),
		zap.Bool("cache", a.rdb != nil),
	)
	return a, nil
}

// newCache wraps the router in the Redis response cache. An unreachable
// server is logged and leaves the cache in bypass mode.
func (a *App) newCache() *cache.CachingFacade {
	cc := a.cfg.Cache
	rdb, err := cache.Connect(context.Background(), cache.Options{
		Addr:     cc.Addr,
		Password: cc.Password,
		DB:       cc.DB,
	}, a.logger.Named("cache"))
	if err != nil {
		a.logger.Warn("response cache disabled", zap.Error(err))
	}
	a.rdb = rdb

	ttls := make(map[core.Operation]time.Duration, len(cc.TTL))
	for op, ttl := range cc.TTL {
		ttls[core.Operation(op)] = ttl
	}
	c := cache.New(rdb, cache.Config{Namespace: cc.Namespace, TTLs: ttls}, a.router, a.logger.Named("cache"))
	if a.metrics != nil {
		c.SetRecorder(a.metrics)
	}
	return c
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if a.rdb == nil {
		return nil
	}
	return a.rdb.Close()
}

// registerProviders adds an adapter for every enabled provider section.
func (a *App) registerProviders() {
	p := a.cfg.Providers
	if p.TwelveData.Enabled {
		a.providers.Register(twelvedata.New(twelvedata.Config{
			BaseURL:   p.TwelveData.BaseURL,
			APIKey:    p.TwelveData.APIKey,
			Timeout:   p.TwelveData.Timeout,
			RateLimit: p.TwelveData.RateLimit,
		}, a.logger))
	}
	if p.Yahoo.Enabled {
		a.providers.Register(yahoo.New(yahoo.Config{
			BaseURL:   p.Yahoo.BaseURL,
			Timeout:   p.Yahoo.Timeout,
			RateLimit: p.Yahoo.RateLimit,
			UserAgent: p.Yahoo.UserAgent,
			Crumb:     p.Yahoo.Crumb,
			Cookie:    p.Yahoo.Cookie,
		}, a.logger))
	}
	if p.AlphaVantage.Enabled {
		a.providers.Register(alphavantage.New(alphavantage.Config{
			BaseURL:   p.AlphaVantage.BaseURL,
			APIKey:    p.AlphaVantage.APIKey,
			Timeout:   p.AlphaVantage.Timeout,
			RateLimit: p.AlphaVantage.RateLimit,
		}, a.logger))
	}
}

// RouterConfig converts the routing section into a router config.
// Provider names are matched case-insensitively.
func RouterConfig(rc config.RoutingConfig) router.Config {
	out := router.Config{Fallback: rc.Fallback}
	if len(rc.Routes) == 0 {
		return out
	}
	out.Routes = make(map[core.Operation][]core.Provider, len(rc.Routes))
	for op, names := range rc.Routes {
		providers := make([]core.Provider, len(names))
		for i, name := range names {
			providers[i] = core.Provider(strings.ToLower(strings.TrimSpace(name)))
		}
		out.Routes[core.Operation(op)] = providers
	}
	return out
}

// RegisterProvider adds or replaces an adapter
func (a *App) RegisterProvider(p collector.Provider) {
	a.providers.Register(p)
}

// Facade returns the data access facade, cached when the cache is enabled
func (a *App) Facade() router.Facade {
	return a.facade
}

// Analyzer returns the analysis workflow
func (a *App) Analyzer() *analysis.Analyzer {
	return a.analyzer
}

// Metrics returns the metrics registry, nil when metrics are disabled
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Providers returns the names of the registered adapters
func (a *App) Providers() []core.Provider {
	return a.providers.Names()
}

// APIServer builds the HTTP API server.
func (a *App) APIServer() (*api.Server, error) {
	deps := api.Dependencies{
		Facade:   a.facade,
		Analyzer: a.analyzer,
	}
	metricsPath := ""
	if a.metrics != nil {
		deps.Metrics = a.metrics
		metricsPath = a.cfg.Metrics.Path
	}
	return api.NewServer(api.Config{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		APIKey:       a.cfg.Server.APIKey,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
	}, deps, a.logger.Named("api"))
}

// MCPServer builds the MCP tool server.
func (a *App) MCPServer(version string) (*mcp.Server, error) {
	s, err := mcp.New(mcp.Config{
		Name:           a.cfg.MCP.Name,
		Version:        version,
		RequestTimeout: a.cfg.MCP.RequestTimeout,
	}, a.facade, a.analyzer, a.logger.Named("mcp"))
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		s.SetRecorder(a.metrics)
	}
	return s, nil
}

// Stats returns a snapshot of the assembled components.
func (a *App) Stats() map[string]any {
	return map[string]any{
		"providers": providerNames(a.providers.Names()),
		"routes":    a.router.Routes(),
		"fallback":  a.cfg.Routing.Fallback,
		"llm":       a.cfg.LLM.Provider,
		"metrics":   a.metrics != nil,
		"cache":     a.rdb != nil,
	}
}

func providerNames(ps []core.Provider) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return names
}
