// Package router is the provider-agnostic facade over the upstream adapters.
// Each operation is routed through a decision table of ordered providers.
package router

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	// Routes overrides the default decision table per operation
	Routes map[core.Operation][]core.Provider `mapstructure:"routes"`
	// Fallback tries the next provider when the selected one fails temporarily
	Fallback bool `mapstructure:"fallback"`
}

// DefaultRoutes returns the default decision table
func DefaultRoutes() map[core.Operation][]core.Provider {
	return map[core.Operation][]core.Provider{
		core.OpQuote:            {core.ProviderTwelveData, core.ProviderYahoo},
		core.OpPrice:            {core.ProviderTwelveData, core.ProviderYahoo},
		core.OpTimeSeries:       {core.ProviderTwelveData, core.ProviderYahoo},
		core.OpIndicator:        {core.ProviderTwelveData},
		core.OpCompanyOverview:  {core.ProviderAlphaVantage, core.ProviderYahoo},
		core.OpEarnings:         {core.ProviderAlphaVantage},
		core.OpPriceTarget:      {core.ProviderTwelveData, core.ProviderYahoo},
		core.OpAnalystSentiment: {core.ProviderYahoo, core.ProviderTwelveData},
	}
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{Routes: DefaultRoutes()}
}

// Facade is the normalized data access surface. Router implements it and
// decorators such as the response cache wrap it.
type Facade interface {
	Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error)
	Price(ctx context.Context, symbol string, provider core.Provider) (*core.PriceTick, error)
	TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error)
	Indicator(ctx context.Context, req collector.IndicatorRequest, provider core.Provider) (*core.IndicatorSeries, error)
	CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error)
	Earnings(ctx context.Context, symbol string, provider core.Provider) (*core.Earnings, error)
	PriceTarget(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error)
	AnalystSentiment(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error)
	Routes() map[core.Operation][]core.Provider
}

var _ Facade = (*Router)(nil)

// Recorder observes upstream calls
type Recorder interface {
	RecordUpstream(provider, operation, outcome string, duration time.Duration)
}

// Router routes normalized operations to provider adapters
type Router struct {
	cfg      Config
	routes   map[core.Operation][]core.Provider
	registry *collector.Registry
	logger   *zap.Logger
	recorder Recorder
	mu       sync.RWMutex
}

// New creates a router. Operations missing from cfg.Routes keep their default route.
func New(cfg Config, registry *collector.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = collector.NewRegistry()
	}

	routes := DefaultRoutes()
	for op, providers := range cfg.Routes {
		routes[op] = slices.Clone(providers)
	}

	return &Router{
		cfg:      cfg,
		routes:   routes,
		registry: registry,
		logger:   logger,
	}
}

// SetRecorder sets the upstream call recorder
func (r *Router) SetRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// Routes returns a copy of the effective decision table
func (r *Router) Routes() map[core.Operation][]core.Provider {
	out := make(map[core.Operation][]core.Provider, len(r.routes))
	for op, providers := range r.routes {
		out[op] = slices.Clone(providers)
	}
	return out
}

// Candidates returns the providers a call would try, in order.
// With a hint, the hinted provider must be listed for op.
// Without one, the first registered capable provider is selected, followed by
// the rest when fallback is enabled.
func (r *Router) Candidates(op core.Operation, hint core.Provider) ([]collector.Provider, error) {
	listed, ok := r.routes[op]
	if !ok {
		return nil, core.WrapError(core.ErrUnsupported, fmt.Errorf("unknown operation %q", op))
	}

	if hint != "" {
		hint = core.Provider(strings.ToLower(string(hint)))
		if !slices.Contains(listed, hint) {
			e := core.WrapError(core.ErrUnsupported, fmt.Errorf("%s is not routed for %s", hint, op))
			e.Provider, e.Operation = hint, op
			return nil, e
		}
		p, ok := r.registry.Get(hint)
		if !ok || !collector.Supports(p, op) {
			e := core.WrapError(core.ErrUnsupported, fmt.Errorf("%s is not enabled", hint))
			e.Provider, e.Operation = hint, op
			return nil, e
		}
		return []collector.Provider{p}, nil
	}

	var out []collector.Provider
	for _, name := range listed {
		p, ok := r.registry.Get(name)
		if !ok {
			continue
		}
		if !collector.Supports(p, op) {
			r.logger.Warn("routed provider lacks capability",
				zap.String("provider", string(name)),
				zap.String("operation", string(op)),
			)
			continue
		}
		out = append(out, p)
		if !r.cfg.Fallback {
			break
		}
	}
	if len(out) == 0 {
		e := core.WrapError(core.ErrUnsupported, fmt.Errorf("no enabled provider for %s", op))
		e.Operation = op
		return nil, e
	}
	return out, nil
}

// dispatch runs call against each candidate until one succeeds.
// Only temporary failures move on to the next candidate.
func dispatch[S collector.Provider, T any](ctx context.Context, r *Router, op core.Operation, symbol string, hint core.Provider, call func(context.Context, S) (T, error)) (T, error) {
	var zero T

	candidates, err := r.Candidates(op, hint)
	if err != nil {
		if e, ok := core.AsError(err); ok {
			e.Symbol = symbol
		}
		return zero, err
	}

	var lastErr error
	for i, p := range candidates {
		src, ok := p.(S)
		if !ok {
			continue
		}
		if i > 0 {
			r.logger.Info("falling back to next provider",
				zap.String("operation", string(op)),
				zap.String("symbol", symbol),
				zap.String("provider", string(p.Name())),
				zap.Error(lastErr),
			)
		}

		start := time.Now()
		res, err := call(ctx, src)
		r.observe(p.Name(), op, symbol, err, time.Since(start))
		if err == nil {
			return res, nil
		}

		lastErr = err
		if !core.IsTemporary(err) || ctx.Err() != nil {
			break
		}
	}
	return zero, lastErr
}

func (r *Router) observe(provider core.Provider, op core.Operation, symbol string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if e, ok := core.AsError(err); ok {
			outcome = strings.ToLower(e.Code)
		}
		r.logger.Warn("upstream call failed",
			zap.String("provider", string(provider)),
			zap.String("operation", string(op)),
			zap.String("symbol", symbol),
			zap.Duration("duration", d),
			zap.Error(err),
		)
	} else {
		r.logger.Debug("upstream call",
			zap.String("provider", string(provider)),
			zap.String("operation", string(op)),
			zap.String("symbol", symbol),
			zap.Duration("duration", d),
		)
	}

	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordUpstream(string(provider), string(op), outcome, d)
	}
}

// Quote returns a real-time quote for symbol
func (r *Router) Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpQuote, symbol, provider, func(ctx context.Context, s collector.QuoteSource) (*core.Quote, error) {
		return s.FetchQuote(ctx, symbol)
	})
}

// Price returns the latest traded price for symbol
func (r *Router) Price(ctx context.Context, symbol string, provider core.Provider) (*core.PriceTick, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpPrice, symbol, provider, func(ctx context.Context, s collector.PriceSource) (*core.PriceTick, error) {
		return s.FetchPrice(ctx, symbol)
	})
}

// TimeSeries returns historical bars in upstream order
func (r *Router) TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpTimeSeries, req.Symbol, provider, func(ctx context.Context, s collector.SeriesSource) (*core.TimeSeries, error) {
		return s.FetchTimeSeries(ctx, req)
	})
}

// Indicator returns an indicator series computed upstream.
// Unknown indicator kinds are rejected before any provider is selected.
func (r *Router) Indicator(ctx context.Context, req collector.IndicatorRequest, provider core.Provider) (*core.IndicatorSeries, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpIndicator, req.Symbol, provider, func(ctx context.Context, s collector.IndicatorSource) (*core.IndicatorSeries, error) {
		return s.FetchIndicator(ctx, req)
	})
}

// CompanyOverview returns descriptive and fundamental company data
func (r *Router) CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpCompanyOverview, symbol, provider, func(ctx context.Context, s collector.ProfileSource) (*core.CompanyProfile, error) {
		return s.FetchCompanyOverview(ctx, symbol)
	})
}

// Earnings returns annual and quarterly earnings
func (r *Router) Earnings(ctx context.Context, symbol string, provider core.Provider) (*core.Earnings, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpEarnings, symbol, provider, func(ctx context.Context, s collector.EarningsSource) (*core.Earnings, error) {
		return s.FetchEarnings(ctx, symbol)
	})
}

// PriceTarget returns analyst price targets
func (r *Router) PriceTarget(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpPriceTarget, symbol, provider, func(ctx context.Context, s collector.PriceTargetSource) (*core.AnalystView, error) {
		return s.FetchPriceTarget(ctx, symbol)
	})
}

// AnalystSentiment returns analyst recommendations
func (r *Router) AnalystSentiment(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, r, core.OpAnalystSentiment, symbol, provider, func(ctx context.Context, s collector.SentimentSource) (*core.AnalystView, error) {
		return s.FetchAnalystSentiment(ctx, symbol)
	})
}
