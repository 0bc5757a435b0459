// Package yahoo adapts the unofficial Yahoo Finance chart and quoteSummary APIs.
package yahoo

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

const (
	// DefaultBaseURL is the public Yahoo Finance query host
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultUserAgent is sent because Yahoo rejects requests without one
	DefaultUserAgent = "Mozilla/5.0"
)

// Config holds adapter settings. Yahoo needs no API key;
// quoteSummary may require a crumb paired with its session cookie.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	UserAgent string
	Crumb     string
	Cookie    string
}

// Yahoo implements the Yahoo Finance adapter
type Yahoo struct {
	crumb     string
	transport *collector.Transport
	logger    *zap.Logger
}

// New creates a Yahoo adapter
func New(cfg Config, logger *zap.Logger, opts ...collector.TransportOption) *Yahoo {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	logger = logger.With(zap.String("provider", string(core.ProviderYahoo)))

	base := []collector.TransportOption{
		collector.WithLogger(logger),
		collector.WithRateLimit(cfg.RateLimit, 1),
		collector.WithHeader("User-Agent", cfg.UserAgent),
		collector.WithHeader("Cookie", cfg.Cookie),
	}
	return &Yahoo{
		crumb:     cfg.Crumb,
		transport: collector.NewTransport(cfg.BaseURL, cfg.Timeout, append(base, opts...)...),
		logger:    logger,
	}
}

// Name returns the provider identifier
func (y *Yahoo) Name() core.Provider {
	return core.ProviderYahoo
}

// get issues one GET and decodes a 2xx body into out.
// Yahoo reports unknown symbols as 404 with a structured error body.
func (y *Yahoo) get(ctx context.Context, op core.Operation, symbol, path string, params url.Values, out any) error {
	if y.crumb != "" {
		params.Set("crumb", y.crumb)
	}

	resp, err := y.transport.Get(ctx, path, params)
	if err != nil {
		return collector.Fail(err, core.ProviderYahoo, op, symbol)
	}

	if !resp.OK() {
		var env errorEnvelope
		if resp.Status == http.StatusNotFound && resp.Decode(&env) == nil {
			if apiErr := env.err(); apiErr != nil {
				return collector.NotFound(core.ProviderYahoo, op, symbol, apiErr.Description)
			}
		}
		return collector.Fail(collector.StatusError(resp), core.ProviderYahoo, op, symbol)
	}

	if err := resp.Decode(out); err != nil {
		return collector.Fail(err, core.ProviderYahoo, op, symbol)
	}
	return nil
}

// apiFailure classifies an error member carried by a 2xx reply
func apiFailure(apiErr *apiError, op core.Operation, symbol string) error {
	if strings.EqualFold(apiErr.Code, "Not Found") {
		return collector.NotFound(core.ProviderYahoo, op, symbol, apiErr.Description)
	}
	e := core.WrapError(core.ErrUpstream, errors.New(apiErr.Code+": "+apiErr.Description))
	e.Status = http.StatusOK
	return core.Describe(e, core.ProviderYahoo, op, symbol)
}
