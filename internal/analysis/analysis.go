// Package analysis runs the stock analysis workflow: a quote, the company
// overview and recent history are fetched as independent parallel calls, and
// the combined report may be summarized by an LLM.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/indicator"
	"github.com/newthinker/finscope/internal/llm"
	"go.uber.org/zap"
)

// Facade is the subset of the data access facade the workflow needs.
type Facade interface {
	Quote(ctx context.Context, symbol string, provider core.Provider) (*core.Quote, error)
	CompanyOverview(ctx context.Context, symbol string, provider core.Provider) (*core.CompanyProfile, error)
	TimeSeries(ctx context.Context, req collector.SeriesRequest, provider core.Provider) (*core.TimeSeries, error)
}

// Recorder observes workflow runs
type Recorder interface {
	RecordAnalysis(status string, duration time.Duration)
}

// Step names one fetch of the workflow
type Step string

const (
	StepQuote    Step = "quote"
	StepOverview Step = "overview"
	StepHistory  Step = "history"
)

// Report status values
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
)

// Config holds workflow settings
type Config struct {
	HistoryBars int
	Interval    core.Interval
	Timeout     time.Duration // bounds the three fetches together, 0 disables
}

// StepError reports why one step produced no data
type StepError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HistoryStats summarizes the fetched bars over the whole window
type HistoryStats struct {
	Bars          int       `json:"bars"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	FirstClose    float64   `json:"first_close"`
	LastClose     float64   `json:"last_close"`
	ChangePercent float64   `json:"change_percent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	// null when the window is shorter than the period
	SMA20 null.Float `json:"sma_20"`
	EMA10 null.Float `json:"ema_10"`
	RSI14 null.Float `json:"rsi_14"`
}

// Report is the combined workflow output. Missing parts are explicit:
// a step that failed has a nil payload and an entry in Errors.
type Report struct {
	Symbol       string               `json:"symbol"`
	Status       string               `json:"status"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Quote        *core.Quote          `json:"quote"`
	Overview     *core.CompanyProfile `json:"overview"`
	History      *core.TimeSeries     `json:"history"`
	Stats        *HistoryStats        `json:"history_stats,omitempty"`
	Errors       map[Step]StepError   `json:"errors,omitempty"`
	Summary      string               `json:"summary,omitempty"`
	SummaryError string               `json:"summary_error,omitempty"`
}

// Available reports whether step produced data
func (r *Report) Available(step Step) bool {
	_, failed := r.Errors[step]
	return !failed
}

// Options tune a single run
type Options struct {
	Summarize bool
}

// Analyzer runs the workflow
type Analyzer struct {
	cfg      Config
	facade   Facade
	llm      llm.Provider
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// New creates an analyzer. summarizer may be nil, in which case
// summarization requests are reported on the report instead of failing it.
func New(cfg Config, facade Facade, summarizer llm.Provider, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = collector.DefaultOutputSize
	}
	if cfg.Interval == "" {
		cfg.Interval = collector.DefaultInterval
	}
	return &Analyzer{
		cfg:    cfg,
		facade: facade,
		llm:    summarizer,
		logger: logger,
		now:    time.Now,
	}
}

// SetRecorder sets the run recorder
func (a *Analyzer) SetRecorder(rec Recorder) {
	a.recorder = rec
}

// CanSummarize reports whether an LLM is configured
func (a *Analyzer) CanSummarize() bool {
	return a.llm != nil
}

// Analyze runs the workflow for symbol. It fails with ErrNoData only when
// every step fails; otherwise the report lists what is missing.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, opts Options) (*Report, error) {
	symbol, err := collector.CheckSymbol(symbol)
	if err != nil {
		return nil, err
	}
	start := a.now()

	fetchCtx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	report := &Report{Symbol: symbol, GeneratedAt: start.UTC()}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[Step]error)
	)
	run := func(step Step, fetch func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(fetchCtx); err != nil {
				mu.Lock()
				errs[step] = err
				mu.Unlock()
			}
		}()
	}

	run(StepQuote, func(ctx context.Context) (err error) {
		report.Quote, err = a.facade.Quote(ctx, symbol, "")
		return err
	})
	run(StepOverview, func(ctx context.Context) (err error) {
		report.Overview, err = a.facade.CompanyOverview(ctx, symbol, "")
		return err
	})
	run(StepHistory, func(ctx context.Context) (err error) {
		report.History, err = a.facade.TimeSeries(ctx, collector.SeriesRequest{
			Symbol:     symbol,
			Interval:   a.cfg.Interval,
			OutputSize: a.cfg.HistoryBars,
		}, "")
		return err
	})
	wg.Wait()

	if len(errs) > 0 {
		report.Errors = make(map[Step]StepError, len(errs))
		for step, err := range errs {
			report.Errors[step] = stepError(err)
			a.logger.Warn("analysis step failed",
				zap.String("symbol", symbol),
				zap.String("step", string(step)),
				zap.Error(err),
			)
		}
	}

	if len(errs) == 3 {
		a.record(StatusFailed, start)
		e := core.WrapError(core.ErrNoData, errors.Join(errs[StepQuote], errs[StepOverview], errs[StepHistory]))
		e.Symbol = symbol
		return nil, e
	}

	report.Status = StatusComplete
	if len(errs) > 0 {
		report.Status = StatusPartial
	}
	if report.History != nil {
		report.Stats = Summarize(*report.History)
	}

	if opts.Summarize {
		a.summarize(ctx, report)
	}

	a.record(report.Status, start)
	a.logger.Info("analysis complete",
		zap.String("symbol", symbol),
		zap.String("status", report.Status),
		zap.Duration("duration", a.now().Sub(start)),
	)
	return report, nil
}

func (a *Analyzer) record(status string, start time.Time) {
	if a.recorder != nil {
		a.recorder.RecordAnalysis(status, a.now().Sub(start))
	}
}

func stepError(err error) StepError {
	if e, ok := core.AsError(err); ok {
		return StepError{Code: e.Code, Message: e.Error()}
	}
	return StepError{Code: "INTERNAL", Message: err.Error()}
}

// Summarize computes window statistics over ts in time-ascending order.
// It returns nil for an empty series.
func Summarize(ts core.TimeSeries) *HistoryStats {
	asc := ts.Ascending()
	if len(asc.Candles) == 0 {
		return nil
	}
	first, last := asc.Candles[0], asc.Candles[len(asc.Candles)-1]
	stats := &HistoryStats{
		Bars:       len(asc.Candles),
		From:       first.Time,
		To:         last.Time,
		FirstClose: first.Close,
		LastClose:  last.Close,
		High:       first.High,
		Low:        first.Low,
	}
	for _, c := range asc.Candles[1:] {
		stats.High = max(stats.High, c.High)
		stats.Low = min(stats.Low, c.Low)
	}
	if first.Close != 0 {
		stats.ChangePercent = (last.Close - first.Close) / first.Close * 100
	}

	closes := indicator.Closes(asc.Candles)
	stats.SMA20 = indicator.Last(indicator.SMA(closes, 20))
	stats.EMA10 = indicator.Last(indicator.EMA(closes, 10))
	stats.RSI14 = indicator.Last(indicator.RSI(closes, 14))
	return stats
}

const systemPrompt = `You are a financial data analyst. Summarize the supplied market data for the
instrument in at most five sentences: current price and move, valuation, and
the trend over the history window. Use only the data given; state plainly
when a section is missing. Do not give investment advice.`

func (a *Analyzer) summarize(ctx context.Context, report *Report) {
	if a.llm == nil {
		report.SummaryError = core.WrapError(core.ErrConfigMissing, errors.New("no llm provider configured")).Error()
		return
	}

	prompt, err := buildPrompt(report)
	if err != nil {
		report.SummaryError = err.Error()
		return
	}

	text, err := llm.Complete(ctx, a.llm, systemPrompt, prompt, 400)
	if err != nil {
		a.logger.Warn("summary failed",
			zap.String("symbol", report.Symbol),
			zap.String("llm", a.llm.Name()),
			zap.Error(err),
		)
		report.SummaryError = err.Error()
		return
	}
	report.Summary = text
}

// buildPrompt renders the fetched sections as JSON. History bars are reduced
// to their statistics to keep the prompt small.
func buildPrompt(report *Report) (string, error) {
	payload := struct {
		Symbol   string               `json:"symbol"`
		Quote    *core.Quote          `json:"quote,omitempty"`
		Overview *core.CompanyProfile `json:"overview,omitempty"`
		History  *HistoryStats        `json:"history,omitempty"`
		Missing  []Step               `json:"missing,omitempty"`
	}{
		Symbol:   report.Symbol,
		Quote:    report.Quote,
		Overview: report.Overview,
		History:  report.Stats,
	}
	for _, step := range []Step{StepQuote, StepOverview, StepHistory} {
		if !report.Available(step) {
			payload.Missing = append(payload.Missing, step)
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding prompt: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market data for %s:\n", report.Symbol)
	b.Write(data)
	return b.String(), nil
}
