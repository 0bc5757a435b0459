package twelvedata

import "github.com/newthinker/finscope/internal/collector"

// envelope carries the error fields every TwelveData payload may include.
// Errors are reported with HTTP 200 and status "error".
type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type quoteResponse struct {
	envelope
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Exchange      string          `json:"exchange"`
	Currency      string          `json:"currency"`
	Datetime      string          `json:"datetime"`
	Timestamp     collector.Field `json:"timestamp"`
	Open          collector.Field `json:"open"`
	High          collector.Field `json:"high"`
	Low           collector.Field `json:"low"`
	Close         collector.Field `json:"close"`
	Volume        collector.Field `json:"volume"`
	PreviousClose collector.Field `json:"previous_close"`
	Change        collector.Field `json:"change"`
	PercentChange collector.Field `json:"percent_change"`
	AverageVolume collector.Field `json:"average_volume"`
	IsMarketOpen  collector.Field `json:"is_market_open"`
	FiftyTwoWeek  struct {
		Low  collector.Field `json:"low"`
		High collector.Field `json:"high"`
	} `json:"fifty_two_week"`
}

type priceResponse struct {
	envelope
	Price collector.Field `json:"price"`
}

type seriesMeta struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
}

type timeSeriesResponse struct {
	envelope
	Meta   seriesMeta `json:"meta"`
	Values []struct {
		Datetime string          `json:"datetime"`
		Open     collector.Field `json:"open"`
		High     collector.Field `json:"high"`
		Low      collector.Field `json:"low"`
		Close    collector.Field `json:"close"`
		Volume   collector.Field `json:"volume"`
	} `json:"values"`
}

// indicatorResponse values are keyed by the indicator name, e.g. {"datetime":..., "sma":"..."}
type indicatorResponse struct {
	envelope
	Meta struct {
		seriesMeta
		Indicator struct {
			Name       string          `json:"name"`
			TimePeriod collector.Field `json:"time_period"`
		} `json:"indicator"`
	} `json:"meta"`
	Values []map[string]collector.Field `json:"values"`
}

type priceTargetResponse struct {
	envelope
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	PriceTarget *struct {
		High     collector.Field `json:"high"`
		Median   collector.Field `json:"median"`
		Low      collector.Field `json:"low"`
		Average  collector.Field `json:"average"`
		Current  collector.Field `json:"current"`
		Currency string          `json:"currency"`
	} `json:"price_target"`
}

type ratingCounts struct {
	StrongBuy  collector.Field `json:"strong_buy"`
	Buy        collector.Field `json:"buy"`
	Hold       collector.Field `json:"hold"`
	Sell       collector.Field `json:"sell"`
	StrongSell collector.Field `json:"strong_sell"`
}

type recommendationsResponse struct {
	envelope
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	Trends *struct {
		CurrentMonth ratingCounts `json:"current_month"`
	} `json:"trends"`
	Rating collector.Field `json:"rating"`
}
