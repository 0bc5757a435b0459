// Package alphavantage adapts the Alpha Vantage fundamentals API.
package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Alpha Vantage endpoint
const DefaultBaseURL = "https://www.alphavantage.co"

// Config holds adapter settings
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
}

// AlphaVantage implements the Alpha Vantage adapter
type AlphaVantage struct {
	apiKey    string
	transport *collector.Transport
	logger    *zap.Logger
}

// New creates an Alpha Vantage adapter. A missing API key is reported per call.
func New(cfg Config, logger *zap.Logger, opts ...collector.TransportOption) *AlphaVantage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	logger = logger.With(zap.String("provider", string(core.ProviderAlphaVantage)))

	base := []collector.TransportOption{
		collector.WithLogger(logger),
		collector.WithRateLimit(cfg.RateLimit, 1),
	}
	return &AlphaVantage{
		apiKey:    cfg.APIKey,
		transport: collector.NewTransport(cfg.BaseURL, cfg.Timeout, append(base, opts...)...),
		logger:    logger,
	}
}

// Name returns the provider identifier
func (a *AlphaVantage) Name() core.Provider {
	return core.ProviderAlphaVantage
}

// notice holds the in-band messages Alpha Vantage sends with HTTP 200
type notice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (n notice) inband() notice { return n }

// query calls /query for function and decodes the payload into out
func (a *AlphaVantage) query(ctx context.Context, op core.Operation, function, symbol string, out interface{ inband() notice }) error {
	if a.apiKey == "" {
		return collector.MissingKey(core.ProviderAlphaVantage, op, symbol)
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", a.apiKey)

	resp, err := a.transport.Get(ctx, "/query", params)
	if err != nil {
		return collector.Fail(err, core.ProviderAlphaVantage, op, symbol)
	}
	if !resp.OK() {
		return collector.Fail(collector.StatusError(resp), core.ProviderAlphaVantage, op, symbol)
	}
	if err := resp.Decode(out); err != nil {
		return collector.Fail(err, core.ProviderAlphaVantage, op, symbol)
	}

	if e := classify(out.inband()); e != nil {
		return collector.Fail(e, core.ProviderAlphaVantage, op, symbol)
	}
	return nil
}

// classify maps in-band notices onto the error taxonomy.
// Throttle notices are reported as 429 so callers see them as temporary.
func classify(n notice) *core.Error {
	switch {
	case n.ErrorMessage != "":
		return core.WrapError(core.ErrSymbolNotFound, errors.New(n.ErrorMessage))
	case n.Information != "" && strings.Contains(strings.ToLower(n.Information), "apikey"):
		e := core.WrapError(core.ErrConfigInvalid, errors.New(n.Information))
		e.Status = http.StatusUnauthorized
		return e
	case n.Note != "" || n.Information != "":
		e := core.WrapError(core.ErrUpstream, errors.New(n.Note+n.Information))
		e.Status = http.StatusTooManyRequests
		return e
	}
	return nil
}
