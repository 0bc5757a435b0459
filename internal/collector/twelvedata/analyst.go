package twelvedata

import (
	"context"
	"net/url"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
)

// FetchPriceTarget fetches the consensus analyst price target
func (t *TwelveData) FetchPriceTarget(ctx context.Context, symbol string) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp priceTargetResponse
	if err := t.call(ctx, core.OpPriceTarget, symbol, "/price_target", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.PriceTarget == nil {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpPriceTarget, symbol, "payload has no price_target")
	}

	pt := resp.PriceTarget
	return &core.AnalystView{
		Symbol:       symbolOr(resp.Meta.Symbol, symbol),
		TargetHigh:   pt.High.Number(),
		TargetLow:    pt.Low.Number(),
		TargetMean:   pt.Average.Number(),
		TargetMedian: pt.Median.Number(),
		CurrentPrice: pt.Current.Number(),
		Currency:     pt.Currency,
		Source:       core.ProviderTwelveData,
	}, nil
}

// FetchAnalystSentiment fetches the current month's recommendation breakdown
func (t *TwelveData) FetchAnalystSentiment(ctx context.Context, symbol string) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp recommendationsResponse
	if err := t.call(ctx, core.OpAnalystSentiment, symbol, "/recommendations", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.Trends == nil {
		return nil, collector.NotFound(core.ProviderTwelveData, core.OpAnalystSentiment, symbol, "payload has no trends")
	}

	cur := resp.Trends.CurrentMonth
	ratings := &core.RatingBreakdown{
		StrongBuy:  count(cur.StrongBuy),
		Buy:        count(cur.Buy),
		Hold:       count(cur.Hold),
		Sell:       count(cur.Sell),
		StrongSell: count(cur.StrongSell),
	}

	view := &core.AnalystView{
		Symbol:            symbolOr(resp.Meta.Symbol, symbol),
		RecommendationKey: recommendationKey(ratings),
		Ratings:           ratings,
		Source:            core.ProviderTwelveData,
	}
	if n := ratings.Total(); n > 0 {
		view.NumberOfAnalysts.SetValid(int64(n))
		view.RecommendationMean.SetValid(meanScore(ratings))
	}
	return view, nil
}

// meanScore maps the breakdown onto the 1 (strong buy) to 5 (strong sell) scale
func meanScore(b *core.RatingBreakdown) float64 {
	sum := 1*b.StrongBuy + 2*b.Buy + 3*b.Hold + 4*b.Sell + 5*b.StrongSell
	return float64(sum) / float64(b.Total())
}

// recommendationKey names the bucket nearest the mean score
func recommendationKey(b *core.RatingBreakdown) string {
	if b.Total() == 0 {
		return ""
	}
	switch m := meanScore(b); {
	case m < 1.5:
		return "strong_buy"
	case m < 2.5:
		return "buy"
	case m < 3.5:
		return "hold"
	case m < 4.5:
		return "sell"
	default:
		return "strong_sell"
	}
}

func count(f collector.Field) int {
	if n := f.Count(); n.Valid {
		return int(n.Int64)
	}
	return 0
}

func symbolOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
