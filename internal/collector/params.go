package collector

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/finscope/internal/core"
)

const (
	DefaultInterval   = core.Interval1Day
	DefaultOutputSize = 30
	DefaultTimePeriod = 50
	MaxOutputSize     = 5000
	MaxTimePeriod     = 5000
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// SeriesRequest selects a window of historical bars
type SeriesRequest struct {
	Symbol     string        `json:"symbol" validate:"required"`
	Interval   core.Interval `json:"interval" validate:"oneof=1min 5min 15min 30min 45min 1h 2h 4h 1day 1week 1month"`
	OutputSize int           `json:"outputsize" validate:"min=1,max=5000"`
}

// Normalize applies defaults and validates the request.
// A zero OutputSize or empty Interval selects the default.
func (r *SeriesRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	if r.Interval == "" {
		r.Interval = DefaultInterval
	}
	if r.OutputSize == 0 {
		r.OutputSize = DefaultOutputSize
	}
	return validateStruct(r)
}

// IndicatorRequest selects a technical indicator over a window of bars
type IndicatorRequest struct {
	Symbol     string             `json:"symbol" validate:"required"`
	Indicator  core.IndicatorKind `json:"indicator" validate:"required,oneof=sma rsi ema"`
	Interval   core.Interval      `json:"interval" validate:"oneof=1min 5min 15min 30min 45min 1h 2h 4h 1day 1week 1month"`
	TimePeriod int                `json:"time_period" validate:"min=1,max=5000"`
	OutputSize int                `json:"outputsize" validate:"min=1,max=5000"`
}

// Normalize applies defaults and validates the request.
// The indicator kind has no default.
func (r *IndicatorRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Indicator = core.IndicatorKind(strings.ToLower(strings.TrimSpace(string(r.Indicator))))
	if r.Interval == "" {
		r.Interval = DefaultInterval
	}
	if r.TimePeriod == 0 {
		r.TimePeriod = DefaultTimePeriod
	}
	if r.OutputSize == 0 {
		r.OutputSize = DefaultOutputSize
	}
	return validateStruct(r)
}

// CheckSymbol trims and validates a bare symbol argument
func CheckSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", core.WrapError(core.ErrInvalidArgument, errors.New("symbol is required"))
	}
	return symbol, nil
}

func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.WrapError(core.ErrInvalidArgument, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return core.WrapError(core.ErrInvalidArgument, errors.New(strings.Join(msgs, "; ")))
}

func describeField(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", name, fmt.Sprint(fe.Value()), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s %v out of range [1, 5000]", name, fe.Value())
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}
