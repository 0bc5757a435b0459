package yahoo

import (
	"context"
	"net/url"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
)

const (
	profileModules   = "price,assetProfile,summaryDetail,defaultKeyStatistics"
	targetModules    = "price,financialData"
	sentimentModules = "price,financialData,recommendationTrend"
)

func (y *Yahoo) summary(ctx context.Context, op core.Operation, symbol, modules string) (*summaryResult, error) {
	params := url.Values{}
	params.Set("modules", modules)

	var resp summaryResponse
	path := "/v10/finance/quoteSummary/" + url.PathEscape(symbol)
	if err := y.get(ctx, op, symbol, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, apiFailure(resp.QuoteSummary.Error, op, symbol)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, collector.NotFound(core.ProviderYahoo, op, symbol, "quoteSummary payload has no result")
	}
	r := &resp.QuoteSummary.Result[0]
	if r.Price == nil || r.Price.Symbol == "" {
		return nil, collector.NotFound(core.ProviderYahoo, op, symbol, "quoteSummary payload has no symbol")
	}
	return r, nil
}

// FetchCompanyOverview fetches profile and valuation modules
func (y *Yahoo) FetchCompanyOverview(ctx context.Context, symbol string) (*core.CompanyProfile, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	r, err := y.summary(ctx, core.OpCompanyOverview, symbol, profileModules)
	if err != nil {
		return nil, err
	}

	p := &core.CompanyProfile{
		Symbol:   symbol,
		Name:     firstNonEmpty(r.Price.LongName, r.Price.ShortName),
		Exchange: r.Price.ExchangeName,
		Currency: r.Price.Currency,
		Source:   core.ProviderYahoo,
	}
	marketCap := r.Price.MarketCap.Number()
	if a := r.AssetProfile; a != nil {
		p.Description = a.LongBusinessSummary
		p.Sector = a.Sector
		p.Industry = a.Industry
		p.Country = a.Country
	}
	if s := r.SummaryDetail; s != nil {
		p.PERatio = s.TrailingPE.Number()
		p.DividendYield = s.DividendYield.Number()
		p.Beta = s.Beta.Number()
		p.FiftyTwoWeekHigh = s.FiftyTwoWeekHigh.Number()
		p.FiftyTwoWeekLow = s.FiftyTwoWeekLow.Number()
		p.FiftyDayMovingAverage = s.FiftyDayAverage.Number()
		p.TwoHundredDayMovingAverage = s.TwoHundredDayAverage.Number()
		if !marketCap.Valid {
			marketCap = s.MarketCap.Number()
		}
	}
	if k := r.DefaultKeyStatistics; k != nil {
		p.EPS = k.TrailingEps.Number()
	}
	p.MarketCap = core.FloatOr(marketCap, 0)
	return p, nil
}

// FetchPriceTarget fetches analyst price targets from financialData
func (y *Yahoo) FetchPriceTarget(ctx context.Context, symbol string) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	r, err := y.summary(ctx, core.OpPriceTarget, symbol, targetModules)
	if err != nil {
		return nil, err
	}
	return y.analystView(symbol, r), nil
}

// FetchAnalystSentiment fetches recommendation data and the current trend breakdown
func (y *Yahoo) FetchAnalystSentiment(ctx context.Context, symbol string) (*core.AnalystView, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	r, err := y.summary(ctx, core.OpAnalystSentiment, symbol, sentimentModules)
	if err != nil {
		return nil, err
	}

	view := y.analystView(symbol, r)
	if rt := r.RecommendationTrend; rt != nil && len(rt.Trend) > 0 {
		// trend[0] is the current month ("0m")
		cur := rt.Trend[0]
		view.Ratings = &core.RatingBreakdown{
			StrongBuy:  count(cur.StrongBuy),
			Buy:        count(cur.Buy),
			Hold:       count(cur.Hold),
			Sell:       count(cur.Sell),
			StrongSell: count(cur.StrongSell),
		}
	}
	return view, nil
}

func (y *Yahoo) analystView(symbol string, r *summaryResult) *core.AnalystView {
	view := &core.AnalystView{
		Symbol:   symbol,
		Currency: r.Price.Currency,
		Source:   core.ProviderYahoo,
	}
	if f := r.FinancialData; f != nil {
		view.RecommendationKey = f.RecommendationKey
		view.RecommendationMean = f.RecommendationMean.Number()
		view.NumberOfAnalysts = f.NumberOfAnalystOpinions.Count()
		view.TargetHigh = f.TargetHighPrice.Number()
		view.TargetLow = f.TargetLowPrice.Number()
		view.TargetMean = f.TargetMeanPrice.Number()
		view.TargetMedian = f.TargetMedianPrice.Number()
		view.CurrentPrice = f.CurrentPrice.Number()
		if f.FinancialCurrency != "" {
			view.Currency = f.FinancialCurrency
		}
	}
	return view
}

func count(f collector.Field) int {
	if n := f.Count(); n.Valid {
		return int(n.Int64)
	}
	return 0
}
