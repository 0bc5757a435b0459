package core

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// Provider identifies an upstream data source
type Provider string

const (
	ProviderTwelveData   Provider = "twelvedata"
	ProviderYahoo        Provider = "yahoo"
	ProviderAlphaVantage Provider = "alphavantage"
)

// Providers lists every supported upstream.
func Providers() []Provider {
	return []Provider{ProviderTwelveData, ProviderYahoo, ProviderAlphaVantage}
}

// Operation names a normalized data access operation
type Operation string

const (
	OpQuote            Operation = "quote"
	OpPrice            Operation = "price"
	OpTimeSeries       Operation = "time_series"
	OpIndicator        Operation = "indicator"
	OpCompanyOverview  Operation = "company_overview"
	OpEarnings         Operation = "earnings"
	OpPriceTarget      Operation = "price_target"
	OpAnalystSentiment Operation = "analyst_sentiment"
)

// Operations lists every operation the facade serves, in a stable order.
func Operations() []Operation {
	return []Operation{
		OpQuote, OpPrice, OpTimeSeries, OpIndicator,
		OpCompanyOverview, OpEarnings, OpPriceTarget, OpAnalystSentiment,
	}
}

// Interval is a bar size in the canonical (TwelveData) notation
type Interval string

const (
	Interval1Min   Interval = "1min"
	Interval5Min   Interval = "5min"
	Interval15Min  Interval = "15min"
	Interval30Min  Interval = "30min"
	Interval45Min  Interval = "45min"
	Interval1Hour  Interval = "1h"
	Interval2Hour  Interval = "2h"
	Interval4Hour  Interval = "4h"
	Interval1Day   Interval = "1day"
	Interval1Week  Interval = "1week"
	Interval1Month Interval = "1month"
)

// IndicatorKind is a technical indicator computed by the upstream provider
type IndicatorKind string

const (
	IndicatorSMA IndicatorKind = "sma"
	IndicatorRSI IndicatorKind = "rsi"
	IndicatorEMA IndicatorKind = "ema"
)

// Quote is a point-in-time snapshot of an instrument's trading state
type Quote struct {
	Symbol           string     `json:"symbol"`
	Name             string     `json:"name,omitempty"`
	Exchange         string     `json:"exchange,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	Price            null.Float `json:"price"`
	Open             null.Float `json:"open"`
	High             null.Float `json:"high"`
	Low              null.Float `json:"low"`
	PreviousClose    null.Float `json:"previous_close"`
	Change           null.Float `json:"change"`
	ChangePercent    null.Float `json:"change_percent"`
	Volume           null.Int   `json:"volume"`
	AverageVolume    null.Int   `json:"average_volume"`
	FiftyTwoWeekHigh null.Float `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  null.Float `json:"fifty_two_week_low"`
	IsMarketOpen     null.Bool  `json:"is_market_open"`
	Time             time.Time  `json:"time"`
	Source           Provider   `json:"source"`
}

// PriceTick is the minimal price snapshot
type PriceTick struct {
	Symbol   string   `json:"symbol"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency,omitempty"`
	Source   Provider `json:"source"`
}

// Candle represents one OHLCV bar
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume null.Int  `json:"volume"`
}

// Sanitize degrades a negative volume to absent and reports whether the
// bar's range is usable (high >= low).
func (c Candle) Sanitize() (Candle, bool) {
	if c.Volume.Valid && c.Volume.Int64 < 0 {
		c.Volume = null.Int{}
	}
	return c, c.High >= c.Low
}

// SeriesOrder records the ordering of candles as delivered upstream
type SeriesOrder string

const (
	OrderAscending  SeriesOrder = "asc"
	OrderDescending SeriesOrder = "desc"
)

// TimeSeries is a sequence of candles in upstream order
type TimeSeries struct {
	Symbol   string      `json:"symbol"`
	Interval Interval    `json:"interval"`
	Currency string      `json:"currency,omitempty"`
	Exchange string      `json:"exchange,omitempty"`
	Order    SeriesOrder `json:"order"`
	Candles  []Candle    `json:"candles"`
	Source   Provider    `json:"source"`
}

// Ascending returns a copy of the series ordered oldest first.
// The receiver is left untouched.
func (ts TimeSeries) Ascending() TimeSeries {
	out := ts
	out.Candles = make([]Candle, len(ts.Candles))
	copy(out.Candles, ts.Candles)
	sort.SliceStable(out.Candles, func(i, j int) bool {
		return out.Candles[i].Time.Before(out.Candles[j].Time)
	})
	out.Order = OrderAscending
	return out
}

// DetectOrder infers the ordering of candles from their timestamps
func DetectOrder(candles []Candle) SeriesOrder {
	if len(candles) > 1 && candles[0].Time.After(candles[len(candles)-1].Time) {
		return OrderDescending
	}
	return OrderAscending
}

// IndicatorPoint is one (timestamp, value) pair
type IndicatorPoint struct {
	Time  time.Time  `json:"time"`
	Value null.Float `json:"value"`
}

// IndicatorSeries holds indicator values computed upstream
type IndicatorSeries struct {
	Symbol     string           `json:"symbol"`
	Indicator  IndicatorKind    `json:"indicator"`
	Interval   Interval         `json:"interval"`
	TimePeriod int              `json:"time_period"`
	Points     []IndicatorPoint `json:"points"`
	Source     Provider         `json:"source"`
}

// CompanyProfile holds descriptive and fundamental attributes
type CompanyProfile struct {
	Symbol                     string     `json:"symbol"`
	Name                       string     `json:"name"`
	Description                string     `json:"description"`
	Exchange                   string     `json:"exchange,omitempty"`
	Currency                   string     `json:"currency,omitempty"`
	Country                    string     `json:"country,omitempty"`
	Sector                     string     `json:"sector"`
	Industry                   string     `json:"industry"`
	MarketCap                  float64    `json:"market_cap"` // 0 when upstream reports none
	PERatio                    null.Float `json:"pe_ratio"`
	EPS                        null.Float `json:"eps"`
	DividendYield              null.Float `json:"dividend_yield"`
	Beta                       null.Float `json:"beta"`
	FiftyTwoWeekHigh           null.Float `json:"fifty_two_week_high"`
	FiftyTwoWeekLow            null.Float `json:"fifty_two_week_low"`
	FiftyDayMovingAverage      null.Float `json:"fifty_day_moving_average"`
	TwoHundredDayMovingAverage null.Float `json:"two_hundred_day_moving_average"`
	Source                     Provider   `json:"source"`
}

// EarningsRecord is one reported-vs-estimated EPS period
type EarningsRecord struct {
	FiscalDateEnding   string     `json:"fiscal_date_ending"`
	ReportedDate       string     `json:"reported_date,omitempty"` // quarterly only
	ReportedEPS        null.Float `json:"reported_eps"`
	EstimatedEPS       null.Float `json:"estimated_eps"`
	Surprise           null.Float `json:"surprise"`
	SurprisePercentage null.Float `json:"surprise_percentage"`
}

// Earnings groups annual and quarterly earnings for a symbol
type Earnings struct {
	Symbol    string           `json:"symbol"`
	Annual    []EarningsRecord `json:"annual"`
	Quarterly []EarningsRecord `json:"quarterly"`
	Source    Provider         `json:"source"`
}

// RatingBreakdown counts analyst opinions per rating bucket
type RatingBreakdown struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

// Total returns the number of opinions in the breakdown
func (b RatingBreakdown) Total() int {
	return b.StrongBuy + b.Buy + b.Hold + b.Sell + b.StrongSell
}

// AnalystView aggregates analyst sentiment and price targets
type AnalystView struct {
	Symbol             string           `json:"symbol"`
	RecommendationKey  string           `json:"recommendation_key,omitempty"`
	RecommendationMean null.Float       `json:"recommendation_mean"`
	NumberOfAnalysts   null.Int         `json:"number_of_analysts"`
	TargetHigh         null.Float       `json:"target_high"`
	TargetLow          null.Float       `json:"target_low"`
	TargetMean         null.Float       `json:"target_mean"`
	TargetMedian       null.Float       `json:"target_median"`
	CurrentPrice       null.Float       `json:"current_price"`
	Currency           string           `json:"currency,omitempty"`
	Ratings            *RatingBreakdown `json:"ratings,omitempty"`
	Source             Provider         `json:"source"`
}
