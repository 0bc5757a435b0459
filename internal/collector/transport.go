package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one upstream request end to end
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of an upstream body is buffered
	maxBodyBytes = 8 << 20
)

// NewHTTPClient builds an HTTP client tuned for upstream API calls
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// Transport performs one GET per call against a provider base URL.
// It is safe for concurrent use.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	headers    http.Header
}

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		if c != nil {
			t.httpClient = c
		}
	}
}

// WithLogger sets a logger
func WithLogger(logger *zap.Logger) TransportOption {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithRateLimit delays requests beyond perSecond; zero disables limiting
func WithRateLimit(perSecond float64, burst int) TransportOption {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHeader adds a header sent on every request
func WithHeader(key, value string) TransportOption {
	return func(t *Transport) {
		if value != "" {
			t.headers.Set(key, value)
		}
	}
}

// NewTransport creates a transport rooted at baseURL
func NewTransport(baseURL string, timeout time.Duration, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(timeout),
		logger:     zap.NewNop(),
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Response is a fully buffered upstream reply
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into out.
// An undecodable body is an upstream failure.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		e := core.WrapError(core.ErrUpstream, fmt.Errorf("decoding response: %w", err))
		e.Status = r.Status
		return e
	}
	return nil
}

// Get issues one GET to baseURL+path. Only failures to obtain a response
// are returned as errors; status handling is left to the caller.
func (t *Transport) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, core.WrapError(core.ErrUpstream, fmt.Errorf("rate limiter: %w", err))
		}
	}

	reqURL := t.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrUpstream, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Debug("upstream request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, core.WrapError(core.ErrUpstream, fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		e := core.WrapError(core.ErrUpstream, fmt.Errorf("reading response: %w", err))
		e.Status = resp.StatusCode
		return nil, e
	}

	t.logger.Debug("upstream request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// StatusError classifies a non-2xx reply.
// Rejected credentials are configuration errors; everything else is an upstream failure.
func StatusError(resp *Response) *core.Error {
	var e *core.Error
	switch resp.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		e = core.WrapError(core.ErrConfigInvalid, fmt.Errorf("credential rejected: %s", snippet(resp.Body)))
	default:
		e = core.WrapError(core.ErrUpstream, fmt.Errorf("unexpected status %d: %s", resp.Status, snippet(resp.Body)))
	}
	e.Status = resp.Status
	return e
}

// Fail attaches call context to err, classifying unknown errors as upstream failures
func Fail(err error, provider core.Provider, op core.Operation, symbol string) error {
	if err == nil {
		return nil
	}
	var e *core.Error
	if !errors.As(err, &e) {
		e = core.WrapError(core.ErrUpstream, err)
	}
	return core.Describe(e, provider, op, symbol)
}

// NotFound builds the error for a payload that lacks its primary key
func NotFound(provider core.Provider, op core.Operation, symbol, detail string) error {
	base := core.ErrSymbolNotFound
	if detail != "" {
		base = core.WrapError(base, errors.New(detail))
	}
	return core.Describe(base, provider, op, symbol)
}

// MissingKey builds the error for an adapter called without its credential
func MissingKey(provider core.Provider, op core.Operation, symbol string) error {
	e := core.WrapError(core.ErrConfigMissing, fmt.Errorf("%s api key not configured", provider))
	return core.Describe(e, provider, op, symbol)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
