// Package cache puts a Redis read-through cache in front of the data access
// facade so repeated lookups do not spend upstream rate limit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Recorder observes cache lookups
type Recorder interface {
	RecordCache(operation, result string)
}

// Lookup results
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

const DefaultNamespace = "finscope"

// DefaultTTLs returns how long each operation's results stay fresh.
// Prices move quickly, fundamentals barely at all.
func DefaultTTLs() map[core.Operation]time.Duration {
	return map[core.Operation]time.Duration{
		core.OpQuote:            15 * time.Second,
		core.OpPrice:            15 * time.Second,
		core.OpTimeSeries:       time.Minute,
		core.OpIndicator:        time.Minute,
		core.OpCompanyOverview:  24 * time.Hour,
		core.OpEarnings:         6 * time.Hour,
		core.OpPriceTarget:      6 * time.Hour,
		core.OpAnalystSentiment: 6 * time.Hour,
	}
}

// Config holds cache settings
type Config struct {
	Namespace string
	// TTLs overrides DefaultTTLs per operation. A negative TTL disables
	// caching for that operation.
	TTLs map[core.Operation]time.Duration
}

// CachingFacade decorates a router.Facade with Redis caching. Errors are never cached.
type CachingFacade struct {
	inner     router.Facade
	rdb       *redis.Client
	ttls      map[core.Operation]time.Duration
	namespace string
	recorder  Recorder
	logger    *zap.Logger
}

// New decorates inner. A nil rdb bypasses the cache entirely.
func New(rdb *redis.Client, cfg Config, inner router.Facade, logger *zap.Logger) *CachingFacade {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	ttls := DefaultTTLs()
	for op, ttl := range cfg.TTLs {
		ttls[op] = ttl
	}
	return &CachingFacade{
		inner:     inner,
		rdb:       rdb,
		ttls:      ttls,
		namespace: cfg.Namespace,
		logger:    logger.With(zap.String("component", "cache")),
	}
}

// SetRecorder sets the lookup recorder
func (c *CachingFacade) SetRecorder(rec Recorder) {
	c.recorder = rec
}

var _ router.Facade = (*CachingFacade)(nil)

// Routes passes through to the wrapped facade
func (c *CachingFacade) Routes() map[core.Operation][]core.Provider {
	return c.inner.Routes()
}

func (c *CachingFacade) Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error) {
	return cached(ctx, c, core.OpQuote, symbol, "", provider, func(ctx context.Context) (*core.Quote, error) {
		return c.inner.Quote(ctx, symbol, provider)
	})
}

func (c *CachingFacade) Price(ctx context.Context, symbol string, provider core.Provider) (*core.PriceTick, error) {
	return cached(ctx, c, core.OpPrice, symbol, "", provider, func(ctx context.Context) (*core.PriceTick, error) {
		return c.inner.Price(ctx, symbol, provider)
	})
}

// TimeSeries keys on the normalized request so defaulted and explicit
// parameters share an entry.
func (c *CachingFacade) TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error) {
	norm := req
	if err := norm.Normalize(); err != nil {
		return c.inner.TimeSeries(ctx, req, provider)
	}
	params := fmt.Sprintf("%s:%d", norm.Interval, norm.OutputSize)
	return cached(ctx, c, core.OpTimeSeries, norm.Symbol, params, provider, func(ctx context.Context) (*core.TimeSeries, error) {
		return c.inner.TimeSeries(ctx, req, provider)
	})
}

func (c *CachingFacade) Indicator(ctx context.Context, req collector.IndicatorRequest, provider core.Provider) (*core.IndicatorSeries, error) {
	norm := req
	if err := norm.Normalize(); err != nil {
		return c.inner.Indicator(ctx, req, provider)
	}
	params := fmt.Sprintf("%s:%s:%d:%d", norm.Indicator, norm.Interval, norm.TimePeriod, norm.OutputSize)
	return cached(ctx, c, core.OpIndicator, norm.Symbol, params, provider, func(ctx context.Context) (*core.IndicatorSeries, error) {
		return c.inner.Indicator(ctx, req, provider)
	})
}

func (c *CachingFacade) CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error) {
	return cached(ctx, c, core.OpCompanyOverview, symbol, "", provider, func(ctx context.Context) (*core.CompanyProfile, error) {
		return c.inner.CompanyOverview(ctx, symbol, provider)
	})
}

func (c *CachingFacade) Earnings(ctx context.Context, symbol string, provider core.Provider) (*core.Earnings, error) {
	return cached(ctx, c, core.OpEarnings, symbol, "", provider, func(ctx context.Context) (*core.Earnings, error) {
		return c.inner.Earnings(ctx, symbol, provider)
	})
}

func (c *CachingFacade) PriceTarget(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error) {
	return cached(ctx, c, core.OpPriceTarget, symbol, "", provider, func(ctx context.Context) (*core.AnalystView, error) {
		return c.inner.PriceTarget(ctx, symbol, provider)
	})
}

func (c *CachingFacade) AnalystSentiment(ctx context.Context, symbol string, provider core.Provider) (*core.AnalystView, error) {
	return cached(ctx, c, core.OpAnalystSentiment, symbol, "", provider, func(ctx context.Context) (*core.AnalystView, error) {
		return c.inner.AnalystSentiment(ctx, symbol, provider)
	})
}

// cached checks Redis first, falls back to fetch and stores the result.
// Redis failures degrade to an uncached call.
func cached[T any](ctx context.Context, c *CachingFacade, op core.Operation, symbol, params string, provider core.Provider, fetch func(context.Context) (*T, error)) (*T, error) {
	ttl := c.ttls[op]
	symbol = strings.TrimSpace(symbol)
	if c.rdb == nil || ttl <= 0 || symbol == "" {
		return fetch(ctx)
	}

	key := c.Key(op, symbol, params, provider)

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil && len(b) > 0:
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			c.record(op, ResultHit)
			return &out, nil
		}
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key))
		_ = c.rdb.Del(ctx, key).Err()
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.record(op, ResultMiss)

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// Key builds namespace:op:symbol[:params]:provider. The symbol keeps its
// case since payloads echo it. The hint is lower-cased as the router
// matches it, and an empty hint is keyed as "auto".
func (c *CachingFacade) Key(op core.Operation, symbol, params string, provider core.Provider) string {
	parts := []string{c.namespace, string(op), safe(strings.TrimSpace(symbol))}
	if params != "" {
		parts = append(parts, safe(params))
	}
	hint := strings.ToLower(strings.TrimSpace(string(provider)))
	if hint == "" {
		hint = "auto"
	}
	parts = append(parts, safe(hint))
	return strings.Join(parts, ":")
}

func (c *CachingFacade) record(op core.Operation, result string) {
	if c.recorder != nil {
		c.recorder.RecordCache(string(op), result)
	}
}

// safe strips whitespace that would make keys ambiguous.
func safe(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
