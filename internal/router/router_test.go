package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/collector/twelvedata"
	"github.com/newthinker/finscope/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuoter serves quotes and prices with a scripted error
type fakeQuoter struct {
	name  core.Provider
	err   error
	calls int
}

func (f *fakeQuoter) Name() core.Provider { return f.name }

func (f *fakeQuoter) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &core.Quote{Symbol: symbol, Price: null.FloatFrom(100), Source: f.name}, nil
}

func (f *fakeQuoter) FetchPrice(ctx context.Context, symbol string) (*core.PriceTick, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &core.PriceTick{Symbol: symbol, Price: 100, Source: f.name}, nil
}

// fakeIndicators counts indicator requests
type fakeIndicators struct {
	calls int
}

func (f *fakeIndicators) Name() core.Provider { return core.ProviderTwelveData }

func (f *fakeIndicators) FetchIndicator(ctx context.Context, req collector.IndicatorRequest) (*core.IndicatorSeries, error) {
	f.calls++
	return &core.IndicatorSeries{Symbol: req.Symbol, Indicator: req.Indicator}, nil
}

type recordedCall struct {
	provider, operation, outcome string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) RecordUpstream(provider, operation, outcome string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{provider, operation, outcome})
}

func temporaryErr() error {
	e := core.WrapError(core.ErrUpstream, errors.New("boom"))
	e.Status = http.StatusServiceUnavailable
	return e
}

func newRouter(cfg Config, providers ...collector.Provider) *Router {
	reg := collector.NewRegistry()
	for _, p := range providers {
		reg.Register(p)
	}
	return New(cfg, reg, nil)
}

func TestDefaultRoutes(t *testing.T) {
	routes := DefaultRoutes()

	for _, op := range core.Operations() {
		assert.NotEmpty(t, routes[op], "operation %s has no route", op)
	}
	assert.Equal(t, []core.Provider{core.ProviderTwelveData, core.ProviderYahoo}, routes[core.OpQuote])
	assert.Equal(t, []core.Provider{core.ProviderTwelveData}, routes[core.OpIndicator])
	assert.Equal(t, []core.Provider{core.ProviderAlphaVantage}, routes[core.OpEarnings])
	assert.Equal(t, []core.Provider{core.ProviderYahoo, core.ProviderTwelveData}, routes[core.OpAnalystSentiment])
}

func TestRouter_ConfigOverridesRoute(t *testing.T) {
	r := New(Config{Routes: map[core.Operation][]core.Provider{
		core.OpQuote: {core.ProviderYahoo},
	}}, nil, nil)

	routes := r.Routes()
	assert.Equal(t, []core.Provider{core.ProviderYahoo}, routes[core.OpQuote])
	assert.Equal(t, DefaultRoutes()[core.OpPrice], routes[core.OpPrice])

	routes[core.OpQuote][0] = "mutated"
	assert.Equal(t, core.ProviderYahoo, r.Routes()[core.OpQuote][0], "Routes must return a copy")
}

func TestRouter_SelectsFirstRegisteredProvider(t *testing.T) {
	td := &fakeQuoter{name: core.ProviderTwelveData}
	yh := &fakeQuoter{name: core.ProviderYahoo}
	r := newRouter(DefaultConfig(), td, yh)

	q, err := r.Quote(context.Background(), "TSLA", "")
	require.NoError(t, err)
	assert.Equal(t, core.ProviderTwelveData, q.Source)
	assert.Equal(t, 0, yh.calls)

	// only yahoo registered
	r = newRouter(DefaultConfig(), yh)
	q, err = r.Quote(context.Background(), "TSLA", "")
	require.NoError(t, err)
	assert.Equal(t, core.ProviderYahoo, q.Source)
}

func TestRouter_Hint(t *testing.T) {
	td := &fakeQuoter{name: core.ProviderTwelveData}
	yh := &fakeQuoter{name: core.ProviderYahoo}
	r := newRouter(DefaultConfig(), td, yh)

	q, err := r.Quote(context.Background(), "TSLA", "Yahoo")
	require.NoError(t, err)
	assert.Equal(t, core.ProviderYahoo, q.Source)
	assert.Equal(t, 0, td.calls)
	assert.Equal(t, 1, yh.calls)

	// a hint outside the route is rejected before any adapter is called
	before := td.calls + yh.calls
	_, err = r.Quote(context.Background(), "TSLA", core.ProviderAlphaVantage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupported))
	assert.Contains(t, err.Error(), "symbol=TSLA")
	assert.Equal(t, before, td.calls+yh.calls)
}

func TestRouter_NoProvider(t *testing.T) {
	r := newRouter(DefaultConfig())

	_, err := r.Earnings(context.Background(), "IBM", "")
	assert.True(t, errors.Is(err, core.ErrUnsupported))
}

func TestRouter_NoFallbackByDefault(t *testing.T) {
	td := &fakeQuoter{name: core.ProviderTwelveData, err: temporaryErr()}
	yh := &fakeQuoter{name: core.ProviderYahoo}
	r := newRouter(DefaultConfig(), td, yh)

	_, err := r.Quote(context.Background(), "TSLA", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUpstream))
	assert.Equal(t, 0, yh.calls)
}

func TestRouter_FallbackOnTemporaryOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fallback = true

	td := &fakeQuoter{name: core.ProviderTwelveData, err: temporaryErr()}
	yh := &fakeQuoter{name: core.ProviderYahoo}
	r := newRouter(cfg, td, yh)

	q, err := r.Quote(context.Background(), "TSLA", "")
	require.NoError(t, err)
	assert.Equal(t, core.ProviderYahoo, q.Source)

	// not found is surfaced, never retried elsewhere
	td.err = core.Describe(core.ErrSymbolNotFound, core.ProviderTwelveData, core.OpQuote, "ZZZZ")
	yh.calls = 0
	_, err = r.Quote(context.Background(), "ZZZZ", "")
	assert.True(t, errors.Is(err, core.ErrSymbolNotFound))
	assert.Equal(t, 0, yh.calls)

	// a hint pins the provider even with fallback enabled
	td.err = temporaryErr()
	_, err = r.Quote(context.Background(), "TSLA", core.ProviderTwelveData)
	assert.True(t, errors.Is(err, core.ErrUpstream))
	assert.Equal(t, 0, yh.calls)
}

func TestRouter_IndicatorRejectedBeforeRouting(t *testing.T) {
	fi := &fakeIndicators{}
	r := newRouter(DefaultConfig(), fi)

	_, err := r.Indicator(context.Background(), collector.IndicatorRequest{Symbol: "AAPL", Indicator: "macd"}, "")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Equal(t, 0, fi.calls)

	s, err := r.Indicator(context.Background(), collector.IndicatorRequest{Symbol: "AAPL", Indicator: "ema"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.IndicatorEMA, s.Indicator)
	assert.Equal(t, 1, fi.calls)
}

func TestRouter_EmptySymbol(t *testing.T) {
	td := &fakeQuoter{name: core.ProviderTwelveData}
	r := newRouter(DefaultConfig(), td)

	_, err := r.Price(context.Background(), " ", "")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Equal(t, 0, td.calls)
}

func TestRouter_RecordsOutcomes(t *testing.T) {
	td := &fakeQuoter{name: core.ProviderTwelveData}
	r := newRouter(DefaultConfig(), td)
	rec := &fakeRecorder{}
	r.SetRecorder(rec)

	_, _ = r.Price(context.Background(), "AAPL", "")
	td.err = core.ErrSymbolNotFound
	_, _ = r.Price(context.Background(), "AAPL", "")

	require.Len(t, rec.calls, 2)
	assert.Equal(t, recordedCall{"twelvedata", "price", "ok"}, rec.calls[0])
	assert.Equal(t, recordedCall{"twelvedata", "price", "symbol_not_found"}, rec.calls[1])
}

// End to end through the real TwelveData adapter against a stub upstream.
func TestRouter_QuoteEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"symbol":"%s","close":"244.20","currency":"USD","status":"ok"}`, r.URL.Query().Get("symbol"))
	}))
	defer server.Close()

	reg := collector.NewRegistry()
	reg.Register(twelvedata.New(twelvedata.Config{BaseURL: server.URL, APIKey: "k"}, nil))
	r := New(DefaultConfig(), reg, nil)

	q, err := r.Quote(context.Background(), "TSLA", "")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", q.Symbol)
	assert.Greater(t, q.Price.Float64, 0.0)
}

func TestRouter_QuoteUpstream500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reg := collector.NewRegistry()
	reg.Register(twelvedata.New(twelvedata.Config{BaseURL: server.URL, APIKey: "k"}, nil))
	r := New(DefaultConfig(), reg, nil)

	q, err := r.Quote(context.Background(), "TSLA", "")
	assert.Nil(t, q)
	require.Error(t, err)

	e, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrUpstream.Code, e.Code)
	assert.Equal(t, core.ProviderTwelveData, e.Provider)
	assert.Equal(t, core.OpQuote, e.Operation)
	assert.Equal(t, "TSLA", e.Symbol)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}
