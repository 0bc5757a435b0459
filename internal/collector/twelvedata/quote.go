package twelvedata

import (
	"context"
	"net/url"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// FetchQuote fetches the full market snapshot for symbol
func (t *TwelveData) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := t.call(ctx, core.OpQuote, symbol, "/quote", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.Symbol == "" {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpQuote, symbol, "quote payload has no symbol")
	}

	return &core.Quote{
		Symbol:           resp.Symbol,
		Name:             resp.Name,
		Exchange:         resp.Exchange,
		Currency:         resp.Currency,
		Price:            resp.Close.Number(),
		Open:             resp.Open.Number(),
		High:             resp.High.Number(),
		Low:              resp.Low.Number(),
		PreviousClose:    resp.PreviousClose.Number(),
		Change:           resp.Change.Number(),
		ChangePercent:    resp.PercentChange.Number(),
		Volume:           resp.Volume.Count(),
		AverageVolume:    resp.AverageVolume.Count(),
		FiftyTwoWeekHigh: resp.FiftyTwoWeek.High.Number(),
		FiftyTwoWeekLow:  resp.FiftyTwoWeek.Low.Number(),
		IsMarketOpen:     resp.IsMarketOpen.Bool(),
		Time:             t.quoteTime(resp),
		Source:           core.ProviderTwelveData,
	}, nil
}

// quoteTime prefers the unix timestamp and falls back to the datetime text
func (t *TwelveData) quoteTime(resp quoteResponse) time.Time {
	if ts := resp.Timestamp.Count(); ts.Valid && ts.Int64 > 0 {
		return time.Unix(ts.Int64, 0).UTC()
	}
	if resp.Datetime == "" {
		return time.Time{}
	}
	tm, err := parseTime(resp.Datetime)
	if err != nil {
		t.logger.Debug("unparseable quote time", zap.String("datetime", resp.Datetime))
		return time.Time{}
	}
	return tm
}

// FetchPrice fetches the latest traded price for symbol
func (t *TwelveData) FetchPrice(ctx context.Context, symbol string) (*core.PriceTick, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp priceResponse
	if err := t.call(ctx, core.OpPrice, symbol, "/price", url.Values{}, &resp); err != nil {
		return nil, err
	}

	price := resp.Price.Number()
	if !price.Valid {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpPrice, symbol, "price payload has no price")
	}

	return &core.PriceTick{
		Symbol: symbol,
		Price:  price.Float64,
		Source: core.ProviderTwelveData,
	}, nil
}
