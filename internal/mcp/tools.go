package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/newthinker/finscope/internal/analysis"
	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// Tool names
const (
	ToolGetQuote            = "get_quote"
	ToolGetPrice            = "get_price"
	ToolGetTimeSeries       = "get_time_series"
	ToolGetIndicator        = "get_indicator"
	ToolGetCompanyOverview  = "get_company_overview"
	ToolGetCompanyEarnings  = "get_company_earnings"
	ToolGetPriceTarget      = "get_price_target"
	ToolGetAnalystSentiment = "get_analyst_sentiment"
	ToolAnalyzeStock        = "analyze_stock"
)

var intervals = []string{
	string(core.Interval1Min), string(core.Interval5Min), string(core.Interval15Min),
	string(core.Interval30Min), string(core.Interval45Min), string(core.Interval1Hour),
	string(core.Interval2Hour), string(core.Interval4Hour), string(core.Interval1Day),
	string(core.Interval1Week), string(core.Interval1Month),
}

func symbolArg() mcpgo.ToolOption {
	return mcpgo.WithString("symbol",
		mcpgo.Required(),
		mcpgo.Description("Ticker symbol, e.g. AAPL"),
	)
}

func providerArg() mcpgo.ToolOption {
	names := make([]string, 0, len(core.Providers()))
	for _, p := range core.Providers() {
		names = append(names, string(p))
	}
	return mcpgo.WithString("provider",
		mcpgo.Description("Upstream to use instead of the configured route"),
		mcpgo.Enum(names...),
	)
}

func intervalArg() mcpgo.ToolOption {
	return mcpgo.WithString("interval",
		mcpgo.Description("Bar size, default 1day"),
		mcpgo.Enum(intervals...),
	)
}

func outputSizeArg() mcpgo.ToolOption {
	return mcpgo.WithNumber("outputsize",
		mcpgo.Description(fmt.Sprintf("Number of bars, default %d", collector.DefaultOutputSize)),
		mcpgo.Min(1),
		mcpgo.Max(collector.MaxOutputSize),
	)
}

func (s *Server) registerTools() {
	s.add(symbolToolDef(ToolGetQuote, "Get a real-time quote: price, daily range, change, volume and 52-week range."),
		symbolTool(s.facade.Quote))
	s.add(symbolToolDef(ToolGetPrice, "Get the latest traded price."),
		symbolTool(s.facade.Price))
	s.add(symbolToolDef(ToolGetCompanyOverview, "Get the company profile and key fundamentals."),
		symbolTool(s.facade.CompanyOverview))
	s.add(symbolToolDef(ToolGetCompanyEarnings, "Get annual and quarterly reported versus estimated EPS."),
		symbolTool(s.facade.Earnings))
	s.add(symbolToolDef(ToolGetPriceTarget, "Get the analyst price target range."),
		symbolTool(s.facade.PriceTarget))
	s.add(symbolToolDef(ToolGetAnalystSentiment, "Get the analyst recommendation and rating breakdown."),
		symbolTool(s.facade.AnalystSentiment))

	s.add(mcpgo.NewTool(ToolGetTimeSeries,
		mcpgo.WithDescription("Get historical OHLCV bars in upstream order."),
		symbolArg(),
		intervalArg(),
		outputSizeArg(),
		providerArg(),
	), s.handleTimeSeries)

	s.add(mcpgo.NewTool(ToolGetIndicator,
		mcpgo.WithDescription("Get a technical indicator computed by the upstream provider."),
		symbolArg(),
		mcpgo.WithString("indicator",
			mcpgo.Required(),
			mcpgo.Description("Indicator kind"),
			mcpgo.Enum(string(core.IndicatorSMA), string(core.IndicatorRSI), string(core.IndicatorEMA)),
		),
		intervalArg(),
		mcpgo.WithNumber("time_period",
			mcpgo.Description(fmt.Sprintf("Bars per indicator value, default %d", collector.DefaultTimePeriod)),
			mcpgo.Min(1),
			mcpgo.Max(collector.MaxTimePeriod),
		),
		outputSizeArg(),
		providerArg(),
	), s.handleIndicator)

	if s.analyzer != nil {
		s.add(mcpgo.NewTool(ToolAnalyzeStock,
			mcpgo.WithDescription("Fetch quote, company overview and recent history in parallel and combine them into one report."),
			symbolArg(),
			mcpgo.WithBoolean("summarize",
				mcpgo.Description("Ask the configured LLM for a short written summary"),
			),
		), s.handleAnalyze)
	}
}

// symbolTool adapts a single-symbol facade call to a tool handler.
func symbolTool[T any](call func(ctx context.Context, symbol string, provider core.Provider) (*T, error)) toolFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (any, error) {
		symbol, err := req.RequireString("symbol")
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidArgument, err)
		}
		out, err := call(ctx, symbol, providerOf(req))
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func symbolToolDef(name, description string) mcpgo.Tool {
	return mcpgo.NewTool(name,
		mcpgo.WithDescription(description),
		symbolArg(),
		providerArg(),
	)
}

type toolFunc func(ctx context.Context, req mcpgo.CallToolRequest) (any, error)

// add registers a tool whose handler returns a payload encoded as JSON text.
// Failures become tool results flagged as errors so the agent can read them.
func (s *Server) add(tool mcpgo.Tool, fn toolFunc) {
	name := tool.Name
	s.mcp.AddTool(tool, func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		start := time.Now()
		out, err := fn(ctx, req)
		if err != nil {
			s.observe(name, OutcomeError)
			s.logger.Warn("tool call failed",
				zap.String("tool", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return mcpgo.NewToolResultError(err.Error()), nil
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			s.observe(name, OutcomeError)
			return mcpgo.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		s.observe(name, OutcomeOK)
		s.logger.Debug("tool call",
			zap.String("tool", name),
			zap.Duration("duration", time.Since(start)),
		)
		return mcpgo.NewToolResultText(string(data)), nil
	})
}

func (s *Server) observe(tool, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordToolCall(tool, outcome)
	}
}

func (s *Server) handleTimeSeries(ctx context.Context, req mcpgo.CallToolRequest) (any, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidArgument, err)
	}
	return s.facade.TimeSeries(ctx, collector.SeriesRequest{
		Symbol:     symbol,
		Interval:   core.Interval(req.GetString("interval", "")),
		OutputSize: req.GetInt("outputsize", 0),
	}, providerOf(req))
}

func (s *Server) handleIndicator(ctx context.Context, req mcpgo.CallToolRequest) (any, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidArgument, err)
	}
	indicator, err := req.RequireString("indicator")
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidArgument, err)
	}
	return s.facade.Indicator(ctx, collector.IndicatorRequest{
		Symbol:     symbol,
		Indicator:  core.IndicatorKind(indicator),
		Interval:   core.Interval(req.GetString("interval", "")),
		TimePeriod: req.GetInt("time_period", 0),
		OutputSize: req.GetInt("outputsize", 0),
	}, providerOf(req))
}

func (s *Server) handleAnalyze(ctx context.Context, req mcpgo.CallToolRequest) (any, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidArgument, err)
	}
	return s.analyzer.Analyze(ctx, symbol, analysis.Options{
		Summarize: req.GetBool("summarize", false),
	})
}

func providerOf(req mcpgo.CallToolRequest) core.Provider {
	return core.Provider(req.GetString("provider", ""))
}
