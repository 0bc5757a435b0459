package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFacade struct {
	quoteErr, overviewErr, historyErr error

	mu       sync.Mutex
	seriesRq collector.SeriesRequest
	inFlight int
	peak     int
	gate     chan struct{}
}

func (f *fakeFacade) enter() {
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeFacade) Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error) {
	f.enter()
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &core.Quote{Symbol: symbol, Price: null.FloatFrom(190.5), Source: core.ProviderTwelveData}, nil
}

func (f *fakeFacade) CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error) {
	f.enter()
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	return &core.CompanyProfile{Symbol: symbol, Name: "Apple Inc", Source: core.ProviderAlphaVantage}, nil
}

func (f *fakeFacade) TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error) {
	f.enter()
	f.mu.Lock()
	f.seriesRq = req
	f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// newest first, as TwelveData returns it
	return &core.TimeSeries{
		Symbol: req.Symbol,
		Order:  core.OrderDescending,
		Candles: []core.Candle{
			{Time: day.AddDate(0, 0, 2), Open: 110, High: 115, Low: 108, Close: 110},
			{Time: day.AddDate(0, 0, 1), Open: 102, High: 120, Low: 101, Close: 104},
			{Time: day, Open: 99, High: 101, Low: 95, Close: 100},
		},
		Source: core.ProviderTwelveData,
	}, nil
}

type stubLLM struct {
	reply  string
	err    error
	prompt string
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.prompt = req.Messages[0].Content
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.reply}, nil
}

type fakeRecorder struct {
	statuses []string
}

func (f *fakeRecorder) RecordAnalysis(status string, d time.Duration) {
	f.statuses = append(f.statuses, status)
}

func TestAnalyze_Complete(t *testing.T) {
	facade := &fakeFacade{}
	rec := &fakeRecorder{}
	a := New(Config{HistoryBars: 3}, facade, nil, nil)
	a.SetRecorder(rec)

	report, err := a.Analyze(context.Background(), " AAPL ", Options{})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, StatusComplete, report.Status)
	assert.Empty(t, report.Errors)
	require.NotNil(t, report.Quote)
	require.NotNil(t, report.Overview)
	require.NotNil(t, report.History)
	assert.Equal(t, core.OrderDescending, report.History.Order, "history keeps upstream order")

	assert.Equal(t, collector.SeriesRequest{Symbol: "AAPL", Interval: core.Interval1Day, OutputSize: 3}, facade.seriesRq)
	assert.Equal(t, []string{StatusComplete}, rec.statuses)
}

func TestAnalyze_FetchesInParallel(t *testing.T) {
	facade := &fakeFacade{gate: make(chan struct{})}
	a := New(Config{}, facade, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.Analyze(context.Background(), "AAPL", Options{})
	}()

	// all three calls must be in flight at once before any returns
	require.Eventually(t, func() bool {
		facade.mu.Lock()
		defer facade.mu.Unlock()
		return facade.inFlight == 3
	}, time.Second, 5*time.Millisecond)
	close(facade.gate)
	<-done

	assert.Equal(t, 3, facade.peak)
}

func TestAnalyze_Partial(t *testing.T) {
	facade := &fakeFacade{
		overviewErr: core.Describe(core.ErrSymbolNotFound, core.ProviderAlphaVantage, core.OpCompanyOverview, "AAPL"),
	}
	a := New(Config{}, facade, nil, nil)

	report, err := a.Analyze(context.Background(), "AAPL", Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, report.Status)
	assert.Nil(t, report.Overview)
	assert.NotNil(t, report.Quote)
	assert.False(t, report.Available(StepOverview))
	assert.True(t, report.Available(StepQuote))
	assert.Equal(t, "SYMBOL_NOT_FOUND", report.Errors[StepOverview].Code)
	assert.Contains(t, report.Errors[StepOverview].Message, "provider=alphavantage")
}

func TestAnalyze_AllStepsFail(t *testing.T) {
	boom := core.WrapError(core.ErrUpstream, errors.New("boom"))
	facade := &fakeFacade{quoteErr: boom, overviewErr: core.ErrConfigMissing, historyErr: boom}
	rec := &fakeRecorder{}
	a := New(Config{}, facade, nil, nil)
	a.SetRecorder(rec)

	report, err := a.Analyze(context.Background(), "ZZZZ", Options{})
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoData))
	assert.True(t, errors.Is(err, core.ErrConfigMissing), "step errors stay reachable")
	assert.Contains(t, err.Error(), "symbol=ZZZZ")
	assert.Equal(t, []string{StatusFailed}, rec.statuses)
}

func TestAnalyze_EmptySymbol(t *testing.T) {
	facade := &fakeFacade{}
	a := New(Config{}, facade, nil, nil)

	_, err := a.Analyze(context.Background(), "", Options{})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Equal(t, 0, facade.peak)
}

func TestAnalyze_Summarize(t *testing.T) {
	summarizer := &stubLLM{reply: "AAPL rose 10% over three sessions."}
	facade := &fakeFacade{historyErr: core.ErrUpstream}
	a := New(Config{}, facade, summarizer, nil)
	assert.True(t, a.CanSummarize())

	report, err := a.Analyze(context.Background(), "AAPL", Options{Summarize: true})
	require.NoError(t, err)

	assert.Equal(t, "AAPL rose 10% over three sessions.", report.Summary)
	assert.Empty(t, report.SummaryError)
	assert.Contains(t, summarizer.prompt, "Market data for AAPL")
	assert.Contains(t, summarizer.prompt, `"missing": [`)
	assert.Contains(t, summarizer.prompt, `"history"`)
	assert.Contains(t, summarizer.prompt, "Apple Inc")
}

func TestAnalyze_SummaryFailureKeepsReport(t *testing.T) {
	summarizer := &stubLLM{err: llm.Failed("stub", errors.New("rate limited"))}
	a := New(Config{}, &fakeFacade{}, summarizer, nil)

	report, err := a.Analyze(context.Background(), "AAPL", Options{Summarize: true})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, report.Status)
	assert.Empty(t, report.Summary)
	assert.Contains(t, report.SummaryError, "LLM_FAILED")
}

func TestAnalyze_SummarizeWithoutLLM(t *testing.T) {
	a := New(Config{}, &fakeFacade{}, nil, nil)
	assert.False(t, a.CanSummarize())

	report, err := a.Analyze(context.Background(), "AAPL", Options{Summarize: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.SummaryError, "[CONFIG_MISSING]"))
}

func TestSummarize(t *testing.T) {
	facade := &fakeFacade{}
	ts, err := facade.TimeSeries(context.Background(), collector.SeriesRequest{Symbol: "AAPL"}, "")
	require.NoError(t, err)

	stats := Summarize(*ts)
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.Bars)
	assert.Equal(t, 100.0, stats.FirstClose)
	assert.Equal(t, 110.0, stats.LastClose)
	assert.InDelta(t, 10.0, stats.ChangePercent, 1e-9)
	assert.Equal(t, 120.0, stats.High)
	assert.Equal(t, 95.0, stats.Low)
	assert.True(t, stats.From.Before(stats.To))
	assert.False(t, stats.SMA20.Valid, "three bars are too few for a 20 bar average")
	assert.False(t, stats.RSI14.Valid)

	// the input series is left in upstream order
	assert.Equal(t, core.OrderDescending, ts.Order)

	assert.Nil(t, Summarize(core.TimeSeries{}))
}

func TestSummarize_Trend(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := core.TimeSeries{Order: core.OrderAscending}
	for i := range 25 {
		c := 100 + float64(i)
		ts.Candles = append(ts.Candles, core.Candle{Time: day.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c})
	}

	stats := Summarize(ts)
	require.NotNil(t, stats)
	// closes 105..124
	assert.InDelta(t, 114.5, stats.SMA20.Float64, 1e-9)
	assert.True(t, stats.EMA10.Valid)
	assert.Equal(t, 100.0, stats.RSI14.Float64, "a steady rise has no losses")
}
