package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/newthinker/finscope/internal/api/response"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
)

// Facade defines the data access operations served over HTTP.
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

// MarketHandler serves the market data endpoints.
type MarketHandler struct {
	facade Facade
}

// NewMarketHandler creates a new market data handler.
func NewMarketHandler(facade Facade) *MarketHandler {
	return &MarketHandler{facade: facade}
}

// symbolCall adapts a (ctx, symbol, provider) facade method to an HTTP handler.
func symbolCall[T any](call func(context.Context, string, core.Provider) (*T, error), source func(*T) core.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := call(r.Context(), r.PathValue("symbol"), providerHint(r))
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.Sourced(w, out, source(out))
	}
}

// Quote handles GET /api/v1/quote/{symbol}
func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.Quote, func(q *core.Quote) core.Provider { return q.Source })(w, r)
}

// Price handles GET /api/v1/price/{symbol}
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.Price, func(p *core.PriceTick) core.Provider { return p.Source })(w, r)
}

// TimeSeries handles GET /api/v1/time_series/{symbol}?interval=&outputsize=
func (h *MarketHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	outputSize, err := intQuery(r, "outputsize")
	if err != nil {
		response.Fail(w, err)
		return
	}
	req := collector.SeriesRequest{
		Symbol:     r.PathValue("symbol"),
		Interval:   core.Interval(r.URL.Query().Get("interval")),
		OutputSize: outputSize,
	}

	ts, err := h.facade.TimeSeries(r.Context(), req, providerHint(r))
	if err != nil {
		response.Fail(w, err)
		return
	}
	if r.URL.Query().Get("order") == "asc" {
		asc := ts.Ascending()
		ts = &asc
	}
	response.Sourced(w, ts, ts.Source)
}

// Indicator handles GET /api/v1/indicators/{indicator}/{symbol}?interval=&time_period=&outputsize=
func (h *MarketHandler) Indicator(w http.ResponseWriter, r *http.Request) {
	timePeriod, err := intQuery(r, "time_period")
	if err != nil {
		response.Fail(w, err)
		return
	}
	outputSize, err := intQuery(r, "outputsize")
	if err != nil {
		response.Fail(w, err)
		return
	}
	req := collector.IndicatorRequest{
		Symbol:     r.PathValue("symbol"),
		Indicator:  core.IndicatorKind(r.PathValue("indicator")),
		Interval:   core.Interval(r.URL.Query().Get("interval")),
		TimePeriod: timePeriod,
		OutputSize: outputSize,
	}

	series, err := h.facade.Indicator(r.Context(), req, providerHint(r))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Sourced(w, series, series.Source)
}

// CompanyOverview handles GET /api/v1/companies/{symbol}/overview
func (h *MarketHandler) CompanyOverview(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.CompanyOverview, func(p *core.CompanyProfile) core.Provider { return p.Source })(w, r)
}

// Earnings handles GET /api/v1/companies/{symbol}/earnings
func (h *MarketHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.Earnings, func(e *core.Earnings) core.Provider { return e.Source })(w, r)
}

// PriceTarget handles GET /api/v1/analysts/{symbol}/price_target
func (h *MarketHandler) PriceTarget(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.PriceTarget, func(v *core.AnalystView) core.Provider { return v.Source })(w, r)
}

// AnalystSentiment handles GET /api/v1/analysts/{symbol}/sentiment
func (h *MarketHandler) AnalystSentiment(w http.ResponseWriter, r *http.Request) {
	symbolCall(h.facade.AnalystSentiment, func(v *core.AnalystView) core.Provider { return v.Source })(w, r)
}

// Routes handles GET /api/v1/routes and returns the effective decision table.
func (h *MarketHandler) Routes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.facade.Routes())
}

func providerHint(r *http.Request) core.Provider {
	return core.Provider(r.URL.Query().Get("provider"))
}

// intQuery parses an optional integer query parameter; absent means zero,
// which the request types treat as their default.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.WrapError(core.ErrInvalidArgument, fmt.Errorf("%s must be an integer, got %q", name, raw))
	}
	return n, nil
}
