// Package twelvedata adapts the TwelveData REST API to the normalized data model.
package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public TwelveData endpoint
	DefaultBaseURL = "https://api.twelvedata.com"

	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// Config holds adapter settings
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
}

// TwelveData implements the TwelveData adapter
type TwelveData struct {
	apiKey    string
	transport *collector.Transport
	logger    *zap.Logger
}

// New creates a TwelveData adapter. A missing API key is reported per call.
func New(cfg Config, logger *zap.Logger, opts ...collector.TransportOption) *TwelveData {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	logger = logger.With(zap.String("provider", string(core.ProviderTwelveData)))

	base := []collector.TransportOption{
		collector.WithLogger(logger),
		collector.WithRateLimit(cfg.RateLimit, 1),
	}
	return &TwelveData{
		apiKey:    cfg.APIKey,
		transport: collector.NewTransport(cfg.BaseURL, cfg.Timeout, append(base, opts...)...),
		logger:    logger,
	}
}

// Name returns the provider identifier
func (t *TwelveData) Name() core.Provider {
	return core.ProviderTwelveData
}

// call issues one authenticated GET and decodes the payload into out.
// The envelope is checked for in-band errors.
func (t *TwelveData) call(ctx context.Context, op core.Operation, symbol, path string, params url.Values, out interface{ status() envelope }) error {
	if t.apiKey == "" {
		return collector.MissingKey(core.ProviderTwelveData, op, symbol)
	}

	params.Set("symbol", symbol)
	params.Set("apikey", t.apiKey)

	resp, err := t.transport.Get(ctx, path, params)
	if err != nil {
		return collector.Fail(err, core.ProviderTwelveData, op, symbol)
	}
	if !resp.OK() {
		return collector.Fail(collector.StatusError(resp), core.ProviderTwelveData, op, symbol)
	}
	if err := resp.Decode(out); err != nil {
		return collector.Fail(err, core.ProviderTwelveData, op, symbol)
	}

	if env := out.status(); env.Status == "error" {
		return collector.Fail(classify(env), core.ProviderTwelveData, op, symbol)
	}
	return nil
}

func (e envelope) status() envelope { return e }

// classify maps an in-band error payload onto the error taxonomy
func classify(env envelope) *core.Error {
	cause := errors.New(env.Message)
	var e *core.Error
	switch {
	case env.Code == http.StatusUnauthorized || env.Code == http.StatusForbidden:
		e = core.WrapError(core.ErrConfigInvalid, cause)
	case env.Code == http.StatusTooManyRequests || env.Code >= 500:
		e = core.WrapError(core.ErrUpstream, cause)
	case strings.Contains(strings.ToLower(env.Message), "api key"):
		e = core.WrapError(core.ErrConfigInvalid, cause)
	case env.Code == http.StatusBadRequest && !strings.Contains(strings.ToLower(env.Message), "symbol"):
		e = core.WrapError(core.ErrInvalidArgument, cause)
	case env.Code == http.StatusBadRequest || env.Code == http.StatusNotFound || env.Code == 0:
		e = core.WrapError(core.ErrSymbolNotFound, cause)
	default:
		e = core.WrapError(core.ErrUpstream, cause)
	}
	e.Status = env.Code
	return e
}

// parseTime accepts the intraday and daily datetime layouts
func parseTime(s string) (time.Time, error) {
	if tm, err := time.Parse(dateTimeLayout, s); err == nil {
		return tm, nil
	}
	tm, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return tm, nil
}
