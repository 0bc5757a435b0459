// Package response writes the JSON envelopes of the HTTP API.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/finscope/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time     `json:"timestamp"`
	Provider  core.Provider `json:"provider,omitempty"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Provider  core.Provider  `json:"provider,omitempty"`
	Operation core.Operation `json:"operation,omitempty"`
	Symbol    string         `json:"symbol,omitempty"`
	Status    int            `json:"upstream_status,omitempty"`
	Temporary bool           `json:"temporary,omitempty"`
	Cause     string         `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	})
}

// Sourced writes a success response naming the provider that served it.
func Sourced(w http.ResponseWriter, data any, provider core.Provider) {
	write(w, http.StatusOK, SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC(), Provider: provider},
	})
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		detail.Provider = coreErr.Provider
		detail.Operation = coreErr.Operation
		detail.Symbol = coreErr.Symbol
		detail.Status = coreErr.Status
		detail.Temporary = coreErr.Temporary()
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	if detail.Temporary {
		w.Header().Set("Retry-After", "30")
	}
	write(w, status, ErrorResponse{Error: detail})
}

// Fail writes err with the status derived from its code.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		return http.StatusInternalServerError
	}
	switch coreErr.Code {
	case core.ErrInvalidArgument.Code, core.ErrUnsupported.Code:
		return http.StatusBadRequest
	case core.ErrUnauthorized.Code:
		return http.StatusUnauthorized
	case core.ErrSymbolNotFound.Code, core.ErrNoData.Code, core.ErrJobNotFound.Code:
		return http.StatusNotFound
	case core.ErrUpstream.Code:
		if coreErr.Status == http.StatusTooManyRequests {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case core.ErrLLMFailed.Code:
		return http.StatusBadGateway
	case core.ErrConfigMissing.Code, core.ErrConfigInvalid.Code:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
