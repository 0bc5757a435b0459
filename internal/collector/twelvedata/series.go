package twelvedata

import (
	"context"
	"net/url"
	"strconv"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// FetchTimeSeries fetches OHLCV bars in the order TwelveData returns them (newest first)
func (t *TwelveData) FetchTimeSeries(ctx context.Context, req collector.SeriesRequest) (*core.TimeSeries, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("interval", string(req.Interval))
	params.Set("outputsize", strconv.Itoa(req.OutputSize))

	var resp timeSeriesResponse
	if err := t.call(ctx, core.OpTimeSeries, req.Symbol, "/time_series", params, &resp); err != nil {
		return nil, err
	}
	if resp.Meta.Symbol == "" {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpTimeSeries, req.Symbol, "series payload has no symbol")
	}

	candles := make([]core.Candle, 0, len(resp.Values))
	dropped := 0
	for _, v := range resp.Values {
		tm, err := parseTime(v.Datetime)
		o, h, l, c := v.Open.Number(), v.High.Number(), v.Low.Number(), v.Close.Number()
		if err != nil || !o.Valid || !h.Valid || !l.Valid || !c.Valid {
			dropped++
			continue
		}
		bar, ok := core.Candle{
			Time:   tm,
			Open:   o.Float64,
			High:   h.Float64,
			Low:    l.Float64,
			Close:  c.Float64,
			Volume: v.Volume.Count(),
		}.Sanitize()
		if !ok {
			dropped++
			continue
		}
		candles = append(candles, bar)
	}
	if dropped > 0 {
		t.logger.Debug("dropped malformed bars",
			zap.String("symbol", req.Symbol),
			zap.Int("dropped", dropped),
		)
	}
	if len(candles) > req.OutputSize {
		candles = candles[:req.OutputSize]
	}

	return &core.TimeSeries{
		Symbol:   resp.Meta.Symbol,
		Interval: req.Interval,
		Currency: resp.Meta.Currency,
		Exchange: resp.Meta.Exchange,
		Order:    core.DetectOrder(candles),
		Candles:  candles,
		Source:   core.ProviderTwelveData,
	}, nil
}

// FetchIndicator fetches an indicator series computed by TwelveData
func (t *TwelveData) FetchIndicator(ctx context.Context, req collector.IndicatorRequest) (*core.IndicatorSeries, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("interval", string(req.Interval))
	params.Set("time_period", strconv.Itoa(req.TimePeriod))
	params.Set("outputsize", strconv.Itoa(req.OutputSize))

	var resp indicatorResponse
	if err := t.call(ctx, core.OpIndicator, req.Symbol, "/"+string(req.Indicator), params, &resp); err != nil {
		return nil, err
	}
	if resp.Meta.Symbol == "" {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpIndicator, req.Symbol, "indicator payload has no symbol")
	}

	key := string(req.Indicator)
	points := make([]core.IndicatorPoint, 0, len(resp.Values))
	for _, v := range resp.Values {
		tm, err := parseTime(v["datetime"].String())
		if err != nil {
			continue
		}
		points = append(points, core.IndicatorPoint{Time: tm, Value: v[key].Number()})
	}

	period := req.TimePeriod
	if p := resp.Meta.Indicator.TimePeriod.Count(); p.Valid {
		period = int(p.Int64)
	}

	return &core.IndicatorSeries{
		Symbol:     resp.Meta.Symbol,
		Indicator:  req.Indicator,
		Interval:   req.Interval,
		TimePeriod: period,
		Points:     points,
		Source:     core.ProviderTwelveData,
	}, nil
}
