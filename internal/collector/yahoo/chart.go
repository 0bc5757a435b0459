package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// yahooInterval maps canonical intervals onto chart intervals.
// The chart API has no 45min, 2h or 4h bars.
var yahooInterval = map[core.Interval]string{
	core.Interval1Min:   "1m",
	core.Interval5Min:   "5m",
	core.Interval15Min:  "15m",
	core.Interval30Min:  "30m",
	core.Interval1Hour:  "1h",
	core.Interval1Day:   "1d",
	core.Interval1Week:  "1wk",
	core.Interval1Month: "1mo",
}

// barsPerDay approximates how many bars one US trading day yields
var barsPerDay = map[core.Interval]float64{
	core.Interval1Min:   390,
	core.Interval5Min:   78,
	core.Interval15Min:  26,
	core.Interval30Min:  13,
	core.Interval1Hour:  7,
	core.Interval1Day:   1,
	core.Interval1Week:  1.0 / 5,
	core.Interval1Month: 1.0 / 21,
}

// maxRange is the longest range Yahoo serves for an intraday interval
var maxRange = map[core.Interval]string{
	core.Interval1Min:   "5d",
	core.Interval5Min:   "1mo",
	core.Interval15Min:  "1mo",
	core.Interval30Min:  "1mo",
	core.Interval1Hour:  "2y",
	core.Interval1Day:   "max",
	core.Interval1Week:  "max",
	core.Interval1Month: "max",
}

var ranges = []struct {
	name string
	days float64
}{
	{"1d", 1}, {"5d", 5}, {"1mo", 21}, {"3mo", 63}, {"6mo", 126},
	{"1y", 252}, {"2y", 504}, {"5y", 1260}, {"10y", 2520}, {"max", math.Inf(1)},
}

// chartRange picks the shortest range that should hold count bars
func chartRange(interval core.Interval, count int) string {
	days := float64(count) / barsPerDay[interval]
	limit := maxRange[interval]
	for _, r := range ranges {
		if r.days >= days || r.name == limit {
			return r.name
		}
	}
	return "max"
}

func (y *Yahoo) chart(ctx context.Context, op core.Operation, symbol, interval, rng string) (*chartResult, error) {
	params := url.Values{}
	params.Set("interval", interval)
	params.Set("range", rng)

	var resp chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	if err := y.get(ctx, op, symbol, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, apiFailure(resp.Chart.Error, op, symbol)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.Symbol == "" {
		return nil, collector.NotFound(core.ProviderYahoo, op, symbol, "chart payload has no symbol")
	}
	return &resp.Chart.Result[0], nil
}

// FetchQuote fetches a quote from the chart meta block
func (y *Yahoo) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	r, err := y.chart(ctx, core.OpQuote, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	meta := r.Meta

	q := &core.Quote{
		Symbol:           symbol,
		Name:             firstNonEmpty(meta.LongName, meta.ShortName),
		Exchange:         firstNonEmpty(meta.FullExchangeName, meta.ExchangeName),
		Currency:         meta.Currency,
		Price:            meta.RegularMarketPrice.Number(),
		High:             meta.RegularMarketDayHigh.Number(),
		Low:              meta.RegularMarketDayLow.Number(),
		PreviousClose:    meta.PreviousClose.Number(),
		Volume:           meta.RegularMarketVolume.Count(),
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh.Number(),
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow.Number(),
		Source:           core.ProviderYahoo,
	}
	if !q.PreviousClose.Valid {
		q.PreviousClose = meta.ChartPreviousClose.Number()
	}
	if len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Open) > 0 {
		q.Open = r.Indicators.Quote[0].Open[0].Number()
	}
	if q.Price.Valid && q.PreviousClose.Valid {
		q.Change.SetValid(q.Price.Float64 - q.PreviousClose.Float64)
		if q.PreviousClose.Float64 != 0 {
			q.ChangePercent.SetValid(q.Change.Float64 / q.PreviousClose.Float64 * 100)
		}
	}
	if ts := meta.RegularMarketTime.Count(); ts.Valid {
		q.Time = time.Unix(ts.Int64, 0).UTC()
		start, end := meta.CurrentTradingPeriod.Regular.Start.Count(), meta.CurrentTradingPeriod.Regular.End.Count()
		if start.Valid && end.Valid {
			q.IsMarketOpen.SetValid(ts.Int64 >= start.Int64 && ts.Int64 < end.Int64)
		}
	}
	return q, nil
}

// FetchPrice fetches the regular market price
func (y *Yahoo) FetchPrice(ctx context.Context, symbol string) (*core.PriceTick, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	r, err := y.chart(ctx, core.OpPrice, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	price := r.Meta.RegularMarketPrice.Number()
	if !price.Valid {
		return nil, collector.NotFound(core.ProviderYahoo, core.OpPrice, symbol, "chart payload has no price")
	}
	return &core.PriceTick{
		Symbol:   symbol,
		Price:    price.Float64,
		Currency: r.Meta.Currency,
		Source:   core.ProviderYahoo,
	}, nil
}

// FetchTimeSeries fetches bars oldest first, keeping the most recent OutputSize
func (y *Yahoo) FetchTimeSeries(ctx context.Context, req collector.SeriesRequest) (*core.TimeSeries, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	interval, ok := yahooInterval[req.Interval]
	if !ok {
		e := core.WrapError(core.ErrInvalidArgument, fmt.Errorf("interval %s not offered by yahoo", req.Interval))
		return nil, core.Describe(e, core.ProviderYahoo, core.OpTimeSeries, req.Symbol)
	}

	r, err := y.chart(ctx, core.OpTimeSeries, req.Symbol, interval, chartRange(req.Interval, req.OutputSize))
	if err != nil {
		return nil, err
	}

	candles := make([]core.Candle, 0, len(r.Timestamp))
	if len(r.Indicators.Quote) > 0 {
		q := r.Indicators.Quote[0]
		for i, ts := range r.Timestamp {
			o, h, l, c := at(q.Open, i).Number(), at(q.High, i).Number(), at(q.Low, i).Number(), at(q.Close, i).Number()
			if !o.Valid || !h.Valid || !l.Valid || !c.Valid {
				continue
			}
			bar, ok := core.Candle{
				Time:   time.Unix(ts, 0).UTC(),
				Open:   o.Float64,
				High:   h.Float64,
				Low:    l.Float64,
				Close:  c.Float64,
				Volume: at(q.Volume, i).Count(),
			}.Sanitize()
			if !ok {
				continue
			}
			candles = append(candles, bar)
		}
	}
	if len(candles) > req.OutputSize {
		y.logger.Debug("trimming series",
			zap.String("symbol", req.Symbol),
			zap.Int("received", len(candles)),
			zap.Int("requested", req.OutputSize),
		)
		candles = candles[len(candles)-req.OutputSize:]
	}

	return &core.TimeSeries{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Currency: r.Meta.Currency,
		Exchange: firstNonEmpty(r.Meta.FullExchangeName, r.Meta.ExchangeName),
		Order:    core.DetectOrder(candles),
		Candles:  candles,
		Source:   core.ProviderYahoo,
	}, nil
}

// at returns fields[i], or an empty field when the column is short
func at(fields []collector.Field, i int) collector.Field {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
