package yahoo

import "github.com/newthinker/finscope/internal/collector"

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// errorEnvelope matches the error member of both chart and quoteSummary replies
type errorEnvelope struct {
	Chart *struct {
		Error *apiError `json:"error"`
	} `json:"chart"`
	QuoteSummary *struct {
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

func (e errorEnvelope) err() *apiError {
	if e.Chart != nil && e.Chart.Error != nil {
		return e.Chart.Error
	}
	if e.QuoteSummary != nil && e.QuoteSummary.Error != nil {
		return e.QuoteSummary.Error
	}
	return nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string          `json:"symbol"`
	Currency             string          `json:"currency"`
	ExchangeName         string          `json:"exchangeName"`
	FullExchangeName     string          `json:"fullExchangeName"`
	LongName             string          `json:"longName"`
	ShortName            string          `json:"shortName"`
	RegularMarketPrice   collector.Field `json:"regularMarketPrice"`
	RegularMarketDayHigh collector.Field `json:"regularMarketDayHigh"`
	RegularMarketDayLow  collector.Field `json:"regularMarketDayLow"`
	RegularMarketVolume  collector.Field `json:"regularMarketVolume"`
	RegularMarketTime    collector.Field `json:"regularMarketTime"`
	ChartPreviousClose   collector.Field `json:"chartPreviousClose"`
	PreviousClose        collector.Field `json:"previousClose"`
	FiftyTwoWeekHigh     collector.Field `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      collector.Field `json:"fiftyTwoWeekLow"`
	CurrentTradingPeriod struct {
		Regular struct {
			Start collector.Field `json:"start"`
			End   collector.Field `json:"end"`
		} `json:"regular"`
	} `json:"currentTradingPeriod"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []collector.Field `json:"open"`
	High   []collector.Field `json:"high"`
	Low    []collector.Field `json:"low"`
	Close  []collector.Field `json:"close"`
	Volume []collector.Field `json:"volume"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	Price *struct {
		Symbol       string        `json:"symbol"`
		LongName     string        `json:"longName"`
		ShortName    string        `json:"shortName"`
		ExchangeName string        `json:"exchangeName"`
		Currency     string        `json:"currency"`
		MarketCap    collector.Raw `json:"marketCap"`
	} `json:"price"`
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Country             string `json:"country"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	SummaryDetail *struct {
		TrailingPE           collector.Raw `json:"trailingPE"`
		DividendYield        collector.Raw `json:"dividendYield"`
		Beta                 collector.Raw `json:"beta"`
		FiftyTwoWeekHigh     collector.Raw `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow      collector.Raw `json:"fiftyTwoWeekLow"`
		FiftyDayAverage      collector.Raw `json:"fiftyDayAverage"`
		TwoHundredDayAverage collector.Raw `json:"twoHundredDayAverage"`
		MarketCap            collector.Raw `json:"marketCap"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		TrailingEps collector.Raw `json:"trailingEps"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		CurrentPrice            collector.Raw `json:"currentPrice"`
		TargetHighPrice         collector.Raw `json:"targetHighPrice"`
		TargetLowPrice          collector.Raw `json:"targetLowPrice"`
		TargetMeanPrice         collector.Raw `json:"targetMeanPrice"`
		TargetMedianPrice       collector.Raw `json:"targetMedianPrice"`
		RecommendationMean      collector.Raw `json:"recommendationMean"`
		RecommendationKey       string        `json:"recommendationKey"`
		NumberOfAnalystOpinions collector.Raw `json:"numberOfAnalystOpinions"`
		FinancialCurrency       string        `json:"financialCurrency"`
	} `json:"financialData"`
	RecommendationTrend *struct {
		Trend []struct {
			Period     string          `json:"period"`
			StrongBuy  collector.Field `json:"strongBuy"`
			Buy        collector.Field `json:"buy"`
			Hold       collector.Field `json:"hold"`
			Sell       collector.Field `json:"sell"`
			StrongSell collector.Field `json:"strongSell"`
		} `json:"trend"`
	} `json:"recommendationTrend"`
}
