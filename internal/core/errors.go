// Package core holds the normalized market data model and the structured
// error type shared by every layer.
package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a structured error with code, call context and optional cause.
type Error struct {
	Code      string
	Message   string
	Provider  Provider
	Operation Operation
	Symbol    string
	Status    int // upstream HTTP status, 0 when no response was received
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	var ctx []string
	if e.Provider != "" {
		ctx = append(ctx, "provider="+string(e.Provider))
	}
	if e.Operation != "" {
		ctx = append(ctx, "op="+string(e.Operation))
	}
	if e.Symbol != "" {
		ctx = append(ctx, "symbol="+e.Symbol)
	}
	if e.Status != 0 {
		ctx = append(ctx, fmt.Sprintf("status=%d", e.Status))
	}
	if len(ctx) > 0 {
		b.WriteString(" (" + strings.Join(ctx, " ") + ")")
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Temporary reports whether retrying the same call later may succeed.
func (e *Error) Temporary() bool {
	if e.Code != ErrUpstream.Code {
		return false
	}
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:      base.Code,
		Message:   base.Message,
		Provider:  base.Provider,
		Operation: base.Operation,
		Symbol:    base.Symbol,
		Status:    base.Status,
		Cause:     cause,
	}
}

// Describe returns a copy of base annotated with the call that produced it.
func Describe(base *Error, provider Provider, op Operation, symbol string) *Error {
	e := WrapError(base, base.Cause)
	e.Provider = provider
	e.Operation = op
	e.Symbol = symbol
	return e
}

// AsError extracts a *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsTemporary reports whether err is a classified error worth retrying.
func IsTemporary(err error) bool {
	e, ok := AsError(err)
	return ok && e.Temporary()
}

// Predefined errors
var (
	// Data errors
	ErrSymbolNotFound = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrJobNotFound    = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}

	// Request errors
	ErrInvalidArgument = &Error{Code: "INVALID_ARGUMENT", Message: "invalid argument"}
	ErrUnsupported     = &Error{Code: "UNSUPPORTED_OPERATION", Message: "operation not supported by provider"}

	// Upstream errors
	ErrUpstream = &Error{Code: "UPSTREAM_FAILED", Message: "upstream request failed"}

	// Access errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
)
