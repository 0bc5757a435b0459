package collector

import (
	"context"

	"github.com/newthinker/finscope/internal/core"
)

// Provider is the common identity of every upstream adapter.
// Adapters implement whichever capability interfaces their upstream supports.
type Provider interface {
	Name() core.Provider
}

// QuoteSource fetches real-time quotes
type QuoteSource interface {
	Provider
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
}

// PriceSource fetches the latest traded price
type PriceSource interface {
	Provider
	FetchPrice(ctx context.Context, symbol string) (*core.PriceTick, error)
}

// SeriesSource fetches historical OHLCV bars
type SeriesSource interface {
	Provider
	FetchTimeSeries(ctx context.Context, req SeriesRequest) (*core.TimeSeries, error)
}

// IndicatorSource fetches technical indicators computed upstream
type IndicatorSource interface {
	Provider
	FetchIndicator(ctx context.Context, req IndicatorRequest) (*core.IndicatorSeries, error)
}

// ProfileSource fetches company fundamentals
type ProfileSource interface {
	Provider
	FetchCompanyOverview(ctx context.Context, symbol string) (*core.CompanyProfile, error)
}

// EarningsSource fetches reported and estimated earnings
type EarningsSource interface {
	Provider
	FetchEarnings(ctx context.Context, symbol string) (*core.Earnings, error)
}

// PriceTargetSource fetches analyst price targets
type PriceTargetSource interface {
	Provider
	FetchPriceTarget(ctx context.Context, symbol string) (*core.AnalystView, error)
}

// SentimentSource fetches analyst recommendations
type SentimentSource interface {
	Provider
	FetchAnalystSentiment(ctx context.Context, symbol string) (*core.AnalystView, error)
}

// Supports reports whether p implements the capability interface for op.
func Supports(p Provider, op core.Operation) bool {
	switch op {
	case core.OpQuote:
		_, ok := p.(QuoteSource)
		return ok
	case core.OpPrice:
		_, ok := p.(PriceSource)
		return ok
	case core.OpTimeSeries:
		_, ok := p.(SeriesSource)
		return ok
	case core.OpIndicator:
		_, ok := p.(IndicatorSource)
		return ok
	case core.OpCompanyOverview:
		_, ok := p.(ProfileSource)
		return ok
	case core.OpEarnings:
		_, ok := p.(EarningsSource)
		return ok
	case core.OpPriceTarget:
		_, ok := p.(PriceTargetSource)
		return ok
	case core.OpAnalystSentiment:
		_, ok := p.(SentimentSource)
		return ok
	}
	return false
}
