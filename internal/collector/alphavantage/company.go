package alphavantage

import (
	"context"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

type overviewResponse struct {
	notice
	Symbol                     string          `json:"Symbol"`
	Name                       string          `json:"Name"`
	Description                string          `json:"Description"`
	Exchange                   string          `json:"Exchange"`
	Currency                   string          `json:"Currency"`
	Country                    string          `json:"Country"`
	Sector                     string          `json:"Sector"`
	Industry                   string          `json:"Industry"`
	MarketCapitalization       collector.Field `json:"MarketCapitalization"`
	PERatio                    collector.Field `json:"PERatio"`
	EPS                        collector.Field `json:"EPS"`
	DividendYield              collector.Field `json:"DividendYield"`
	Beta                       collector.Field `json:"Beta"`
	FiftyTwoWeekHigh           collector.Field `json:"52WeekHigh"`
	FiftyTwoWeekLow            collector.Field `json:"52WeekLow"`
	FiftyDayMovingAverage      collector.Field `json:"50DayMovingAverage"`
	TwoHundredDayMovingAverage collector.Field `json:"200DayMovingAverage"`
}

type earningsRecord struct {
	FiscalDateEnding   string          `json:"fiscalDateEnding"`
	ReportedDate       string          `json:"reportedDate"`
	ReportedEPS        collector.Field `json:"reportedEPS"`
	EstimatedEPS       collector.Field `json:"estimatedEPS"`
	Surprise           collector.Field `json:"surprise"`
	SurprisePercentage collector.Field `json:"surprisePercentage"`
}

type earningsResponse struct {
	notice
	Symbol            string           `json:"symbol"`
	AnnualEarnings    []earningsRecord `json:"annualEarnings"`
	QuarterlyEarnings []earningsRecord `json:"quarterlyEarnings"`
}

// FetchCompanyOverview fetches the OVERVIEW fundamentals for symbol.
// Market cap defaults to 0 when absent; every other numeric may be absent.
func (a *AlphaVantage) FetchCompanyOverview(ctx context.Context, symbol string) (*core.CompanyProfile, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp overviewResponse
	if err := a.query(ctx, core.OpCompanyOverview, "OVERVIEW", symbol, &resp); err != nil {
		return nil, err
	}
	if resp.Symbol == "" {
		return nil, collector.NotFound(core.ProviderAlphaVantage, core.OpCompanyOverview, symbol, "company overview not found")
	}

	a.logger.Debug("company overview",
		zap.String("symbol", resp.Symbol),
		zap.String("sector", resp.Sector),
	)

	return &core.CompanyProfile{
		Symbol:                     resp.Symbol,
		Name:                       resp.Name,
		Description:                resp.Description,
		Exchange:                   resp.Exchange,
		Currency:                   resp.Currency,
		Country:                    resp.Country,
		Sector:                     resp.Sector,
		Industry:                   resp.Industry,
		MarketCap:                  core.FloatOr(resp.MarketCapitalization.Number(), 0),
		PERatio:                    resp.PERatio.Number(),
		EPS:                        resp.EPS.Number(),
		DividendYield:              resp.DividendYield.Number(),
		Beta:                       resp.Beta.Number(),
		FiftyTwoWeekHigh:           resp.FiftyTwoWeekHigh.Number(),
		FiftyTwoWeekLow:            resp.FiftyTwoWeekLow.Number(),
		FiftyDayMovingAverage:      resp.FiftyDayMovingAverage.Number(),
		TwoHundredDayMovingAverage: resp.TwoHundredDayMovingAverage.Number(),
		Source:                     core.ProviderAlphaVantage,
	}, nil
}

// FetchEarnings fetches annual and quarterly EPS history for symbol
func (a *AlphaVantage) FetchEarnings(ctx context.Context, symbol string) (*core.Earnings, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var resp earningsResponse
	if err := a.query(ctx, core.OpEarnings, "EARNINGS", symbol, &resp); err != nil {
		return nil, err
	}
	if resp.Symbol == "" {
		return nil, collector.NotFound(core.ProviderAlphaVantage, core.OpEarnings, symbol, "earnings not found")
	}

	return &core.Earnings{
		Symbol:    resp.Symbol,
		Annual:    toRecords(resp.AnnualEarnings),
		Quarterly: toRecords(resp.QuarterlyEarnings),
		Source:    core.ProviderAlphaVantage,
	}, nil
}

func toRecords(in []earningsRecord) []core.EarningsRecord {
	out := make([]core.EarningsRecord, 0, len(in))
	for _, r := range in {
		out = append(out, core.EarningsRecord{
			FiscalDateEnding:   r.FiscalDateEnding,
			ReportedDate:       r.ReportedDate,
			ReportedEPS:        r.ReportedEPS.Number(),
			EstimatedEPS:       r.EstimatedEPS.Number(),
			Surprise:           r.Surprise.Number(),
			SurprisePercentage: r.SurprisePercentage.Number(),
		})
	}
	return out
}
